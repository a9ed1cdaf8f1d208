// Package email sends transactional mail.
//
// Sender is implemented by a Postmark client for production and by DevSender,
// which writes each message to a JSON file so billing notifications can be
// inspected locally. New picks one from Config.
package email
