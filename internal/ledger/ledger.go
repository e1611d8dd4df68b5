package ledger

import "slices"

// Answer is the recorded selection for one question.
type Answer struct {
	QuestionID int    `json:"id"`
	Selected   string `json:"selected"`
	Correct    bool   `json:"correct"`
}

// Summary is the ledger tally, entries sorted by question id.
type Summary struct {
	Correct  int      `json:"correct"`
	Answered int      `json:"answered"`
	Entries  []Answer `json:"entries"`
}

// Ledger is a value type: Record returns an updated copy and never touches
// the receiver, so a State holding a Ledger can be copied freely.
type Ledger struct {
	entries []Answer
}

func (l Ledger) Record(questionID int, selected string, correct bool) Ledger {
	next := slices.Clone(l.entries)
	ans := Answer{QuestionID: questionID, Selected: selected, Correct: correct}

	if i := l.indexOf(questionID); i >= 0 {
		next[i] = ans
		return Ledger{entries: next}
	}
	return Ledger{entries: append(next, ans)}
}

func (l Ledger) Lookup(questionID int) (Answer, bool) {
	if i := l.indexOf(questionID); i >= 0 {
		return l.entries[i], true
	}
	return Answer{}, false
}

// Entries returns answers in the order they were first recorded.
func (l Ledger) Entries() []Answer {
	return slices.Clone(l.entries)
}

func (l Ledger) Len() int { return len(l.entries) }

func (l Ledger) Summary() Summary {
	entries := l.Entries()
	slices.SortFunc(entries, func(a, b Answer) int { return a.QuestionID - b.QuestionID })

	s := Summary{Answered: len(entries), Entries: entries}
	for _, e := range entries {
		if e.Correct {
			s.Correct++
		}
	}
	return s
}

func (l Ledger) indexOf(questionID int) int {
	return slices.IndexFunc(l.entries, func(a Answer) bool { return a.QuestionID == questionID })
}
