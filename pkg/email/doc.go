// Package email defines the EmailSender interface and two implementations:
// a Postmark-backed client for real delivery and a DevSender that writes
// emails to disk for local development.
//
//	var cfg email.Config
//	config.MustLoad(&cfg)
//
//	sender, err := email.NewPostmarkClient(cfg)
//	if err != nil {
//	    sender = email.NewDevSender("./tmp/emails")
//	}
//
// The billing trial reminder uses this interface for its expiry notices.
package email
