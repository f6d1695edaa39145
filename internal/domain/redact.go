package domain

// Redacted returns a copy of the quiz with the answer key stripped from every
// question, for learner-facing reads. The scorer always reads the unredacted
// document.
func (q Quiz) Redacted() Quiz {
	questions := make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.AnswerIndices = nil
		question.Explanation = ""
		questions[i] = question
	}
	q.Questions = questions
	return q
}
