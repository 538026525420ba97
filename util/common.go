package util

import (
	"strings"

	"github.com/0xERR0R/stubdns/log"
	"github.com/0xERR0R/stubdns/wire"
)

// AnswerToString renders records in compact single-line form for logs
func AnswerToString(answer []wire.Record) string {
	answers := make([]string, len(answer))

	for i, record := range answer {
		answers[i] = record.String()
	}

	return strings.Join(answers, ", ")
}

// QuestionToString renders questions in compact single-line form for logs
func QuestionToString(questions []wire.Question) string {
	result := make([]string, len(questions))
	for i, question := range questions {
		result[i] = question.String()
	}

	return strings.Join(result, ", ")
}

// LogOnError logs the message with the error if err is not nil
func LogOnError(message string, err error) {
	if err != nil {
		log.Log().Error(message, err)
	}
}

// FatalOnError logs the message with the error and terminates if err is not nil
func FatalOnError(message string, err error) {
	if err != nil {
		log.Log().Fatal(message, err)
	}
}
