package tg

import "encoding/json"

// UpdateKind names the single optional field that is set on an Update.
type UpdateKind string

// Update kinds, using the Bot API field names so they can be passed as
// allowed_updates.
const (
	UpdateMessage            UpdateKind = "message"
	UpdateEditedMessage      UpdateKind = "edited_message"
	UpdateChannelPost        UpdateKind = "channel_post"
	UpdateEditedChannelPost  UpdateKind = "edited_channel_post"
	UpdateCallbackQuery      UpdateKind = "callback_query"
	UpdateInlineQuery        UpdateKind = "inline_query"
	UpdateChosenInlineResult UpdateKind = "chosen_inline_result"
	UpdateShippingQuery      UpdateKind = "shipping_query"
	UpdatePreCheckoutQuery   UpdateKind = "pre_checkout_query"
	UpdatePoll               UpdateKind = "poll"
	UpdatePollAnswer         UpdateKind = "poll_answer"
	UpdateMyChatMember       UpdateKind = "my_chat_member"
	UpdateChatMember         UpdateKind = "chat_member"
	UpdateChatJoinRequest    UpdateKind = "chat_join_request"
	UpdateUnknown            UpdateKind = "unknown"
)

// Update represents an incoming update from Telegram.
//
// Kinds the bot never acts on are kept as raw JSON so that they are still
// recognised (and acknowledged) without modelling their payloads.
type Update struct {
	UpdateID           int                 `json:"update_id"`
	Message            *Message            `json:"message,omitempty"`
	EditedMessage      *Message            `json:"edited_message,omitempty"`
	ChannelPost        *Message            `json:"channel_post,omitempty"`
	EditedChannelPost  *Message            `json:"edited_channel_post,omitempty"`
	CallbackQuery      *CallbackQuery      `json:"callback_query,omitempty"`
	InlineQuery        *InlineQuery        `json:"inline_query,omitempty"`
	ChosenInlineResult *ChosenInlineResult `json:"chosen_inline_result,omitempty"`
	ShippingQuery      json.RawMessage     `json:"shipping_query,omitempty"`
	PreCheckoutQuery   json.RawMessage     `json:"pre_checkout_query,omitempty"`
	Poll               json.RawMessage     `json:"poll,omitempty"`
	PollAnswer         json.RawMessage     `json:"poll_answer,omitempty"`
	MyChatMember       json.RawMessage     `json:"my_chat_member,omitempty"`
	ChatMember         json.RawMessage     `json:"chat_member,omitempty"`
	ChatJoinRequest    json.RawMessage     `json:"chat_join_request,omitempty"`
}

// Kind reports which payload the update carries.
func (u *Update) Kind() UpdateKind {
	switch {
	case u == nil:
		return UpdateUnknown
	case u.InlineQuery != nil:
		return UpdateInlineQuery
	case u.ChosenInlineResult != nil:
		return UpdateChosenInlineResult
	case u.Message != nil:
		return UpdateMessage
	case u.EditedMessage != nil:
		return UpdateEditedMessage
	case u.ChannelPost != nil:
		return UpdateChannelPost
	case u.EditedChannelPost != nil:
		return UpdateEditedChannelPost
	case u.CallbackQuery != nil:
		return UpdateCallbackQuery
	case isSet(u.ShippingQuery):
		return UpdateShippingQuery
	case isSet(u.PreCheckoutQuery):
		return UpdatePreCheckoutQuery
	case isSet(u.Poll):
		return UpdatePoll
	case isSet(u.PollAnswer):
		return UpdatePollAnswer
	case isSet(u.MyChatMember):
		return UpdateMyChatMember
	case isSet(u.ChatMember):
		return UpdateChatMember
	case isSet(u.ChatJoinRequest):
		return UpdateChatJoinRequest
	}
	return UpdateUnknown
}

func isSet(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// CallbackQuery represents an incoming callback query from an inline keyboard.
type CallbackQuery struct {
	ID              string   `json:"id"`
	From            *User    `json:"from"`
	Message         *Message `json:"message,omitempty"`
	InlineMessageID string   `json:"inline_message_id,omitempty"`
	ChatInstance    string   `json:"chat_instance"`
	Data            string   `json:"data,omitempty"`
}

// InlineQuery represents an incoming inline query.
// ID must be echoed back in answerInlineQuery; Query may be empty.
type InlineQuery struct {
	ID       string    `json:"id"`
	From     *User     `json:"from"`
	Query    string    `json:"query"`
	Offset   string    `json:"offset"`
	ChatType string    `json:"chat_type,omitempty"`
	Location *Location `json:"location,omitempty"`
}

// ChosenInlineResult represents a result chosen by a user.
type ChosenInlineResult struct {
	ResultID        string    `json:"result_id"`
	From            *User     `json:"from"`
	Location        *Location `json:"location,omitempty"`
	InlineMessageID string    `json:"inline_message_id,omitempty"`
	Query           string    `json:"query"`
}
