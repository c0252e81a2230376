// Package telegram implements the Telegram Bot API node types for tgflow.
//
// It registers three types with the host:
//
//   - telegramApi: the bot-token credential, tested with getMe
//   - telegramTrigger: a webhook trigger that keeps Telegram's registered
//     webhook in sync with the host and optionally downloads photo/document
//     attachments of incoming updates
//   - telegram: an action node covering message, chat, callback and file
//     operations
package telegram
