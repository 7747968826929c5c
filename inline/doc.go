// Package inline turns inline queries into catalog searches and answers.
package inline
