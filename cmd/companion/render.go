package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"

	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/internal/schedule"
	"github.com/semana-app/companion/internal/voting"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	winnerStyle   = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 2)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}

func menu(options []string, selected string) string {
	parts := make([]string, len(options))
	for i, o := range options {
		if o == selected {
			parts[i] = selectedStyle.Render(o)
		} else {
			parts[i] = mutedStyle.Render(o)
		}
	}
	return strings.Join(parts, "  ")
}

func renderDayMenu(dates []string, selected string) string {
	labels := schedule.DayLabels(dates)
	options := make([]string, len(labels))
	options[0] = labels[0]
	for i, d := range dates {
		options[i+1] = fmt.Sprintf("%s (%s)", labels[i+1], schedule.FormatDate(d))
		if labels[i+1] == selected {
			selected = options[i+1]
		}
	}
	return "Dias: " + menu(options, selected)
}

func renderTypeMenu(types []string, selected string) string {
	return "Tipos: " + menu(append([]string{schedule.All}, types...), selected)
}

func renderAgenda(acts []models.Activity) string {
	if len(acts) == 0 {
		return mutedStyle.Render("Nenhuma atividade para os filtros escolhidos.")
	}
	t := newTable("Data", "Horário", "Tipo", "Atividade", "Local", "ID")
	for _, a := range acts {
		date, hours := "-", "-"
		if start, ok := a.FirstStart(); ok {
			date = schedule.FormatDate(start.Format("2006-01-02"))
			hours = start.Format("15:04") + "–" + a.TimeRanges[0].End.Format("15:04")
		}
		title := a.Title
		if len(a.Speakers) > 0 {
			names := make([]string, len(a.Speakers))
			for i, s := range a.Speakers {
				names[i] = s.Name
			}
			title += "\n" + mutedStyle.Render(strings.Join(names, ", "))
		}
		t.Row(date, hours, a.Type, title, a.Location, a.ID.String())
	}
	return t.String()
}

func renderBoard(board *voting.Board, viewer uuid.UUID) string {
	qs := board.Questions()
	if len(qs) == 0 {
		return mutedStyle.Render("Nenhuma pergunta ainda. Seja o primeiro!")
	}
	t := newTable("Votos", "", "Pergunta", "Autor", "ID")
	for _, q := range qs {
		mark := ""
		switch {
		case !board.CanVote(q):
			mark = "sua"
		case q.HasVoter(viewer):
			mark = "✓"
		}
		text := q.Title
		if q.Answered {
			text += "\n" + mutedStyle.Render("respondida")
			if q.Answer != nil {
				text += mutedStyle.Render(": " + *q.Answer)
			}
		}
		t.Row(strconv.Itoa(q.Votes), mark, text, q.AuthorName, q.ID.String())
	}
	return t.String()
}

func renderAttendance(list []models.Attendance) string {
	if len(list) == 0 {
		return mutedStyle.Render("Nenhuma presença registrada.")
	}
	t := newTable("Atividade", "Registrada em")
	for _, a := range list {
		t.Row(a.ActivityID.String(), a.RegisteredAt.Format("02/01/2006 15:04"))
	}
	return t.String()
}

func stars(n int) string {
	if n < models.MinRating || n > models.MaxRating {
		return ""
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", models.MaxRating-n)
}

func renderFeedback(list []models.Feedback) string {
	if len(list) == 0 {
		return mutedStyle.Render("Nenhuma avaliação.")
	}
	t := newTable("Atividade", "Nota", "Comentário")
	for _, f := range list {
		comment := ""
		if f.Comment != nil {
			comment = *f.Comment
		}
		t.Row(f.ActivityID.String(), stars(f.Rating), comment)
	}
	return t.String()
}

func renderQuizList(quizzes []models.Quiz) string {
	if len(quizzes) == 0 {
		return mutedStyle.Render("Nenhum quiz liberado.")
	}
	t := newTable("Quiz", "Perguntas", "ID")
	for _, q := range quizzes {
		t.Row(q.Title, strconv.Itoa(len(q.Questions)), q.ID.String())
	}
	return t.String()
}

func renderQuiz(q *models.Quiz) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(q.Title))
	b.WriteString("\n")
	for i, qq := range q.Questions {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, qq.Prompt)
		for j, o := range qq.Options {
			fmt.Fprintf(&b, "   %d) %s\n", j+1, o.Text)
		}
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Responda com: companion quiz %s --responder 1=2,2=1", q.ID)))
	return b.String()
}

func renderProfile(p *models.Profile) string {
	t := newTable("Campo", "Valor")
	t.Row("Nome", p.Name)
	t.Row("Empresa", p.Company)
	t.Row("Cargo", p.JobTitle)
	t.Row("Cidade", p.City)
	t.Row("Telefone", p.Phone)
	if p.PhotoURL != "" {
		t.Row("Foto", p.PhotoURL)
	}
	return t.String()
}

func renderEngagement(rows []models.EngagementRow) string {
	if len(rows) == 0 {
		return mutedStyle.Render("Nenhum participante atende aos filtros.")
	}
	t := newTable("#", "Participante", "E-mail", "Presenças", "Feedbacks", "Perguntas", "Curtidas", "Total")
	for i, r := range rows {
		t.Row(strconv.Itoa(i+1), r.Name, r.Email,
			strconv.Itoa(r.Attendance), strconv.Itoa(r.Feedback),
			strconv.Itoa(r.Questions), strconv.Itoa(r.Likes), strconv.Itoa(r.Total))
	}
	return t.String() + "\n" + mutedStyle.Render(fmt.Sprintf("%d participantes", len(rows)))
}

func renderWinner(res models.DrawResult) string {
	body := fmt.Sprintf("%s\n%s\n\n%d presenças · %d feedbacks · %d perguntas\nentre %d participantes",
		headerStyle.Render("🎉 "+res.Winner.Name), res.Winner.Email,
		res.Winner.Attendance, res.Winner.Feedback, res.Winner.Questions, res.Candidates)
	return winnerStyle.Render(body)
}
