package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call for the user-facing notice.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindValidation
	KindBusiness
	KindNotFound
	KindUnauthorized
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindBusiness:
		return "business"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindServer:
		return "server"
	}
	return "unknown"
}

// Operation names carried by Error so callers can tell rejections apart.
const (
	OpLogin              = "login"
	OpRegister           = "register"
	OpListActivities     = "list_activities"
	OpGetActivity        = "get_activity"
	OpListQuestions      = "list_questions"
	OpCreateQuestion     = "create_question"
	OpVote               = "vote"
	OpUnvote             = "unvote"
	OpAnswerQuestion     = "answer_question"
	OpSetQuestionStatus  = "set_question_status"
	OpCanLike            = "can_like"
	OpLike               = "like"
	OpUnlike             = "unlike"
	OpRegisterAttendance = "register_attendance"
	OpListAttendance     = "list_attendance"
	OpSubmitFeedback     = "submit_feedback"
	OpListFeedback       = "list_feedback"
	OpGetQuiz            = "get_quiz"
	OpListQuizzes        = "list_quizzes"
	OpReleaseQuiz        = "release_quiz"
	OpAnswerQuiz         = "answer_quiz"
	OpEngagement         = "engagement"
	OpDraw               = "draw"
	OpGetProfile         = "get_profile"
	OpUpdateProfile      = "update_profile"
	OpPhotoUpload        = "photo_upload"
)

// Error is a failed API call. Status is 0 for network and client-side validation failures.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Kind, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return KindBusiness
	case status >= 500:
		return KindServer
	}
	return KindValidation
}

func validationError(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}
