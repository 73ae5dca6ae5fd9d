package unlock

// QuizLength is the number of questions in a bonus-unlock quiz.
const QuizLength = 5

// QuizPassThreshold is the minimum correct answers to unlock early.
const QuizPassThreshold = 3

// QuizPassed reports whether a bonus-unlock quiz attempt cleared the bar.
// The server is the authority on the unlock itself; this mirrors its rule
// so the UI can message the outcome without a second round trip.
func QuizPassed(correct int) bool {
	return correct >= QuizPassThreshold
}
