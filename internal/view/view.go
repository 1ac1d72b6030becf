// Package view holds the page state and the events that change it.
//
// State is a value. Reduce returns a new State for every Event and never
// mutates its input, so handlers can keep the previous state around.
package view

import "github.com/huangsam/repopulse/schema"

// FetchErrorMessage is shown when the analytics request fails.
const FetchErrorMessage = "Failed to fetch data. Please try again."

// Form field names accepted by FieldChanged.
const (
	FieldMessage    = "message"
	FieldOwner      = "owner"
	FieldRepo       = "repo"
	FieldCredential = "ghPat"
)

// Form holds what the user typed.
type Form struct {
	Message    string
	Owner      string
	Repo       string
	Credential string
}

// Request converts the form into an analytics request.
func (f Form) Request() schema.AnalyticsRequest {
	return schema.AnalyticsRequest{Message: f.Message, Owner: f.Owner, Repo: f.Repo}
}

// RepoRef returns the repository named by the form.
func (f Form) RepoRef() schema.RepoRef {
	return schema.RepoRef{Owner: f.Owner, Repo: f.Repo}
}

// State is everything the page renders.
type State struct {
	Form           Form
	Explanation    string
	Error          string
	Pending        bool
	ElapsedSeconds int
	DarkMode       bool
	RefreshChart   bool // The chart must be re-fetched for Form's repository
}

// Event is a discrete state transition.
type Event interface {
	apply(State) State
}

// Reduce applies e to s and returns the resulting state.
func Reduce(s State, e Event) State {
	if e == nil {
		return s
	}
	return e.apply(s)
}

// ReduceAll applies events in order.
func ReduceAll(s State, events ...Event) State {
	for _, e := range events {
		s = Reduce(s, e)
	}
	return s
}

// FieldChanged sets one form field. Unknown names are ignored.
type FieldChanged struct {
	Name  string
	Value string
}

func (e FieldChanged) apply(s State) State {
	switch e.Name {
	case FieldMessage:
		s.Form.Message = e.Value
	case FieldOwner:
		s.Form.Owner = e.Value
	case FieldRepo:
		s.Form.Repo = e.Value
	case FieldCredential:
		s.Form.Credential = e.Value
	}
	return s
}

// SubmitStarted clears the previous outcome and starts the timer.
type SubmitStarted struct{}

func (SubmitStarted) apply(s State) State {
	s.Error = ""
	s.Explanation = ""
	s.Pending = true
	s.ElapsedSeconds = 0
	return s
}

// Tick advances the pending-request timer by one second.
type Tick struct{}

func (Tick) apply(s State) State {
	if s.Pending {
		s.ElapsedSeconds++
	}
	return s
}

// SubmitSucceeded stores the explanation and asks for a chart refresh.
type SubmitSucceeded struct {
	Explanation string
}

func (e SubmitSucceeded) apply(s State) State {
	s.Explanation = e.Explanation
	s.Error = ""
	s.Pending = false
	s.RefreshChart = true
	return s
}

// SubmitFailed stores an error message. An empty Message uses FetchErrorMessage.
type SubmitFailed struct {
	Message string
}

func (e SubmitFailed) apply(s State) State {
	s.Error = e.Message
	if s.Error == "" {
		s.Error = FetchErrorMessage
	}
	s.Pending = false
	return s
}

// DarkModeToggled flips the theme.
type DarkModeToggled struct{}

func (DarkModeToggled) apply(s State) State {
	s.DarkMode = !s.DarkMode
	return s
}

// DarkModeSet forces the theme.
type DarkModeSet struct {
	Enabled bool
}

func (e DarkModeSet) apply(s State) State {
	s.DarkMode = e.Enabled
	return s
}

// ChartRefreshed acknowledges a chart re-fetch.
type ChartRefreshed struct{}

func (ChartRefreshed) apply(s State) State {
	s.RefreshChart = false
	return s
}
