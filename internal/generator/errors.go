package generator

// UsageError is a run that was asked for nothing, or for something that
// cannot exist.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}
