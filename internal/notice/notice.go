// Package notice turns errors into the blocking message shown to the participant.
package notice

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/lipgloss"

	"github.com/semana-app/companion/internal/api"
	"github.com/semana-app/companion/internal/checkin"
	"github.com/semana-app/companion/internal/session"
	"github.com/semana-app/companion/internal/voting"
)

// Notice is a user-facing error message.
type Notice struct {
	Title   string
	Message string
}

const (
	titleError      = "Erro"
	titleConnection = "Sem conexão"
	titleAttention  = "Atenção"
	titleNotFound   = "Não encontrado"
	titleLogin      = "Acesso negado"
)

// From converts err into a Notice. A nil error yields the zero Notice.
func From(err error) Notice {
	if err == nil {
		return Notice{}
	}

	switch {
	case errors.Is(err, session.ErrNoSession):
		return Notice{titleLogin, "Faça login para continuar."}
	case errors.Is(err, voting.ErrLikeLimitReached):
		return Notice{titleAttention, "Você já curtiu 3 perguntas nesta palestra."}
	case errors.Is(err, voting.ErrOwnQuestion):
		return Notice{titleAttention, "Você não pode votar na sua própria pergunta."}
	case errors.Is(err, voting.ErrEmptyTitle):
		return Notice{titleAttention, "Digite o título da pergunta."}
	case errors.Is(err, voting.ErrQuestionNotFound):
		return Notice{titleNotFound, "Pergunta não encontrada."}
	case errors.Is(err, checkin.ErrInvalidCode):
		return Notice{"QR Code inválido", "Este QR Code não corresponde a uma atividade."}
	case errors.Is(err, checkin.ErrNoCode):
		return Notice{"QR Code inválido", "Nenhum QR Code foi lido."}
	}

	var e *api.Error
	if !errors.As(err, &e) {
		return Notice{titleError, "Algo deu errado. Tente novamente."}
	}
	if n, ok := byOperation(e); ok {
		return n
	}
	return byKind(e)
}

// byOperation covers rejections whose wording depends on what was attempted.
func byOperation(e *api.Error) (Notice, bool) {
	switch e.Op {
	case api.OpSubmitFeedback:
		switch {
		case e.Status == http.StatusUnprocessableEntity:
			return Notice{titleAttention, "Registre sua presença na palestra antes de avaliar."}, true
		case e.Status == http.StatusConflict:
			return Notice{titleAttention, "Você já avaliou esta palestra."}, true
		case e.Kind == api.KindValidation && e.Status == 0:
			return Notice{titleAttention, "Selecione uma nota de 1 a 5 estrelas."}, true
		}
	case api.OpLike:
		if e.Status == http.StatusUnprocessableEntity {
			return Notice{titleAttention, "Você já curtiu 3 perguntas nesta palestra."}, true
		}
		if e.Status == http.StatusConflict {
			return Notice{titleAttention, "Você já curtiu esta pergunta."}, true
		}
	case api.OpUnlike:
		if e.Status == http.StatusConflict {
			return Notice{titleAttention, "Você ainda não curtiu esta pergunta."}, true
		}
	case api.OpVote:
		if e.Status == http.StatusConflict {
			return Notice{titleAttention, "Você já votou nesta pergunta."}, true
		}
		if e.Status == http.StatusForbidden {
			return Notice{titleAttention, "Você não pode votar na sua própria pergunta."}, true
		}
	case api.OpUnvote:
		if e.Status == http.StatusConflict {
			return Notice{titleAttention, "Você ainda não votou nesta pergunta."}, true
		}
		if e.Status == http.StatusForbidden {
			return Notice{titleAttention, "Você não pode votar na sua própria pergunta."}, true
		}
	case api.OpRegisterAttendance:
		if e.Status == http.StatusConflict {
			return Notice{titleAttention, "Sua presença nesta atividade já foi registrada."}, true
		}
		if e.Status == http.StatusNotFound {
			return Notice{"QR Code inválido", "Atividade não encontrada."}, true
		}
	case api.OpCreateQuestion:
		if e.Kind == api.KindValidation && e.Status == 0 {
			return Notice{titleAttention, "Digite o título da pergunta."}, true
		}
	case api.OpAnswerQuiz:
		switch {
		case e.Status == http.StatusConflict:
			return Notice{titleAttention, "Você já respondeu este quiz."}, true
		case e.Status == http.StatusUnprocessableEntity:
			return Notice{titleAttention, "Este quiz ainda não foi liberado."}, true
		case e.Kind == api.KindValidation && e.Status == 0:
			return Notice{titleAttention, "Responda ao menos uma questão."}, true
		}
	case api.OpDraw:
		if e.Status == http.StatusUnprocessableEntity {
			return Notice{titleAttention, "Nenhum participante atende aos filtros do sorteio."}, true
		}
	case api.OpLogin:
		if e.Kind == api.KindUnauthorized {
			return Notice{titleLogin, "E-mail ou senha incorretos."}, true
		}
	}
	return Notice{}, false
}

func byKind(e *api.Error) Notice {
	switch e.Kind {
	case api.KindNetwork:
		return Notice{titleConnection, "Não foi possível conectar ao servidor. Verifique sua internet."}
	case api.KindValidation:
		msg := "Verifique os dados informados."
		if e.Message != "" && e.Status != 0 {
			msg = e.Message
		}
		return Notice{titleAttention, msg}
	case api.KindBusiness:
		msg := "Não foi possível concluir a ação."
		if e.Message != "" {
			msg = e.Message
		}
		return Notice{titleAttention, msg}
	case api.KindNotFound:
		return Notice{titleNotFound, "O item solicitado não existe mais."}
	case api.KindUnauthorized:
		if e.Status == http.StatusForbidden {
			return Notice{titleLogin, "Você não tem permissão para esta ação."}
		}
		return Notice{titleLogin, "Sua sessão expirou. Faça login novamente."}
	case api.KindServer:
		return Notice{titleError, "O servidor encontrou um erro. Tente novamente em instantes."}
	}
	return Notice{titleError, "Algo deu errado. Tente novamente."}
}

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("203")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
)

// Render draws n as a bordered box.
func Render(n Notice) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(n.Title), n.Message))
}
