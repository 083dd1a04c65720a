package api

import (
	"time"

	"github.com/warpfork/go-errcat"
)

/*
	Event stream types: what an import reports while it runs, and the
	wire form of its final result.
*/
type (
	/*
		Monitor says where running commentary should go.  Leave Chan nil
		and the import runs silent; give it a channel and every event
		lands there in order until the import closes it on the way out.
	*/
	Monitor struct {
		Chan chan<- Event
	}

	/*
		Event is a union: exactly one of the pointers is set.

		Result never travels over Monitor.Chan (callers get those values
		as plain returns); it exists for the serial form, where the final
		report rides the same stream as everything else.
	*/
	Event struct {
		Log      *Event_Log      `refmt:"log,omitempty"`
		Progress *Event_Progress `refmt:"prog,omitempty"`
		Result   *Event_Result   `refmt:"result,omitempty"`
	}

	/*
		Freetext log lines, with optional key-value details attached.
	*/
	Event_Log struct {
		Time   time.Time   `refmt:"t"`
		Level  LogLevel    `refmt:"lvl"`
		Msg    string      `refmt:"msg"`
		Detail [][2]string `refmt:"detail,omitempty"`
	}

	/*
		Notifications about progress through the release sequence.

		'Phase' names the release currently being worked on (its releaseID),
		and 'Desc' the step within it.  'TotalProg' counts releases fully
		committed so far; 'TotalWork' is the length of the whole sequence.
	*/
	Event_Progress struct {
		Phase, Desc          string
		TotalProg, TotalWork int
	}

	/*
		Final report of an import: either the result, or a serializable error.
	*/
	Event_Result struct {
		Result ImportResult `refmt:",omitempty"`
		Error  *Error       `refmt:",omitempty"`
	}
)

type LogLevel int8

const (
	LogError = LogLevel(4) // Error log lines, if used at all, mean the program is on its way to exiting non-zero.
	LogWarn  = LogLevel(3) // Warning logs are for systemic correctable problems, e.g. a fallback being taken.
	LogInfo  = LogLevel(2) // Info logs are statements about progress or decisions, e.g. which parse heuristic fired.
	LogDebug = LogLevel(1) // Debug logs are for narrating internals step by step.
)

/*
	A serializable form of an error: concrete category, message, and details.

	Implements the errcat error interface, so a deserialized Error can flow
	back into the same handling paths as a live one.
*/
type Error struct {
	Category_ ErrorCategory     `refmt:"category"`
	Message_  string            `refmt:"msg"`
	Details_  map[string]string `refmt:"details,omitempty"`
}

func (e *Error) Category() interface{}      { return e.Category_ }
func (e *Error) Message() string            { return e.Message_ }
func (e *Error) Details() map[string]string { return e.Details_ }
func (e *Error) Error() string              { return e.Message_ }

/*
	SetError converts an error into its serializable form and attaches it.

	Errors without an ErrorCategory get labeled ErrInternal; nothing
	reaches the wire uncategorized.
*/
func (r *Event_Result) SetError(err error) {
	if err == nil {
		r.Error = nil
		return
	}
	r.Error = &Error{Message_: err.Error()}
	if cat, ok := errcat.Category(err).(ErrorCategory); ok {
		r.Error.Category_ = cat
	} else {
		r.Error.Category_ = ErrInternal
	}
	if e2, ok := err.(errcat.Error); ok {
		r.Error.Details_ = e2.Details()
	}
}
