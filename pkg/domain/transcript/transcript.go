package transcript

// Outcome is the three-way result of a single recognition attempt.
type Outcome string

const (
	OutcomeRecognized Outcome = "Recognized"
	OutcomeNoMatch    Outcome = "NoMatch"
	OutcomeCanceled   Outcome = "Canceled"
)

// Transcript is the immutable output of the transcription stage.
type Transcript struct {
	Text         string
	Outcome      Outcome
	CancelReason string
}
