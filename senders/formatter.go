package senders

import "fmt"

// statusEmailFormat composes the two fixed status-change messages. The body
// varies only by the new status, nothing else.
type statusEmailFormat struct {
	websiteURL string
	online     bool
}

func (ef *statusEmailFormat) Subject() string {
	if ef.online {
		return "Website back online"
	}
	return "Website offline"
}

func (ef *statusEmailFormat) Body() string {
	if ef.online {
		return fmt.Sprintf("The website %s is back online", ef.websiteURL)
	}
	return fmt.Sprintf("The website %s is currently down", ef.websiteURL)
}

type testEmailFormat struct{}

func (ef *testEmailFormat) Subject() string {
	return "Watchdog test notification"
}

func (ef *testEmailFormat) Body() string {
	return "This is a test notification from watchdog. Delivery works."
}
