package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/semana-app/companion/internal/api"
	"github.com/semana-app/companion/internal/checkin"
	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/internal/notice"
	"github.com/semana-app/companion/internal/schedule"
	"github.com/semana-app/companion/internal/voting"
)

func (a *app) root() *command {
	return &command{
		Name:    "companion",
		Summary: "Participant companion for the event: schedule, questions, check-in, feedback and quizzes.",
		Subcommands: []*command{
			a.loginCmd(),
			a.signupCmd(),
			a.logoutCmd(),
			a.agendaCmd(),
			a.questionsCmd(),
			a.voteCmd(),
			a.likeCmd(),
			a.askCmd(),
			a.attendanceCmd(),
			a.feedbackCmd(),
			a.quizCmd(),
			a.profileCmd(),
			a.drawCmd(),
		},
	}
}

func parseID(what, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, usageError{fmt.Sprintf("invalid %s %q", what, s)}
	}
	return id, nil
}

func (a *app) loginCmd() *command {
	var email, password string
	return &command{
		Name:    "login",
		Summary: "Sign in and store the session",
		Usage:   "companion login --email E --senha S",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
			fs.StringVar(&email, "email", "", "account e-mail")
			fs.StringVar(&password, "senha", os.Getenv("COMPANION_PASSWORD"), "password (default $COMPANION_PASSWORD)")
			return fs
		},
		Run: func(args []string) error {
			if email == "" || password == "" {
				return usageError{"usage: companion login --email E --senha S"}
			}
			sess, err := a.client.Login(a.ctx, email, password)
			if err != nil {
				return err
			}
			if err := a.store.Save(sess); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Olá, %s!\n", sess.Participant.Name)
			return nil
		},
	}
}

func (a *app) signupCmd() *command {
	var email, password, name string
	return &command{
		Name:    "cadastro",
		Summary: "Create an account and sign in",
		Usage:   "companion cadastro --nome N --email E --senha S",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("cadastro", pflag.ContinueOnError)
			fs.StringVar(&name, "nome", "", "display name")
			fs.StringVar(&email, "email", "", "account e-mail")
			fs.StringVar(&password, "senha", os.Getenv("COMPANION_PASSWORD"), "password (default $COMPANION_PASSWORD)")
			return fs
		},
		Run: func(args []string) error {
			if name == "" || email == "" || password == "" {
				return usageError{"usage: companion cadastro --nome N --email E --senha S"}
			}
			sess, err := a.client.Register(a.ctx, email, password, name)
			if err != nil {
				return err
			}
			if err := a.store.Save(sess); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Bem-vindo(a), %s!\n", sess.Participant.Name)
			return nil
		},
	}
}

func (a *app) logoutCmd() *command {
	return &command{
		Name:    "logout",
		Summary: "Forget the stored session",
		Usage:   "companion logout",
		Run: func(args []string) error {
			a.client.SetSession(nil)
			return a.store.Clear()
		},
	}
}

func (a *app) agendaCmd() *command {
	var day, tipo string
	return &command{
		Name:    "agenda",
		Summary: "Show the schedule, optionally filtered by day and type",
		Usage:   `companion agenda [--dia "Dia N"] [--tipo T]`,
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("agenda", pflag.ContinueOnError)
			fs.StringVar(&day, "dia", schedule.All, `day filter, "Dia N" or "Todos"`)
			fs.StringVar(&tipo, "tipo", schedule.All, `activity type, or "Todos"`)
			return fs
		},
		Run: func(args []string) error {
			if _, err := a.session(); err != nil {
				return err
			}
			acts, err := a.client.Activities(a.ctx)
			if err != nil {
				return err
			}
			dates := schedule.ExtractUniqueDates(acts)
			view := schedule.FilterByType(schedule.FilterByDay(acts, day, dates), tipo)
			fmt.Fprintln(a.out, renderDayMenu(dates, day))
			fmt.Fprintln(a.out, renderTypeMenu(schedule.DistinctTypes(acts), tipo))
			fmt.Fprintln(a.out, renderAgenda(schedule.SortByStart(view)))
			return nil
		},
	}
}

func (a *app) loadBoard(talkArg string) (*voting.Board, error) {
	sess, err := a.session()
	if err != nil {
		return nil, err
	}
	talkID, err := parseID("palestraId", talkArg)
	if err != nil {
		return nil, err
	}
	board := voting.NewBoard(a.client, sess, talkID, a.logger)
	if err := board.Load(a.ctx); err != nil {
		return nil, err
	}
	return board, nil
}

func (a *app) questionsCmd() *command {
	return &command{
		Name:    "perguntas",
		Summary: "List the questions of a talk, most voted first",
		Usage:   "companion perguntas <palestraId>",
		Run: func(args []string) error {
			if err := exactArgs("perguntas", args, 1, "<palestraId>"); err != nil {
				return err
			}
			board, err := a.loadBoard(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, renderBoard(board, a.client.Session().ParticipantID()))
			return nil
		},
	}
}

func (a *app) voteCmd() *command {
	return &command{
		Name:    "votar",
		Summary: "Vote on a question, or remove your vote",
		Usage:   "companion votar <palestraId> <perguntaId>",
		Run: func(args []string) error {
			if err := exactArgs("votar", args, 2, "<palestraId> <perguntaId>"); err != nil {
				return err
			}
			board, err := a.loadBoard(args[0])
			if err != nil {
				return err
			}
			qid, err := parseID("perguntaId", args[1])
			if err != nil {
				return err
			}
			toggleErr := board.Toggle(a.ctx, qid)
			if len(board.Questions()) > 0 {
				fmt.Fprintln(a.out, renderBoard(board, a.client.Session().ParticipantID()))
			}
			return toggleErr
		},
	}
}

func (a *app) likeCmd() *command {
	var remove bool
	return &command{
		Name:    "curtir",
		Summary: "Like a question (at most 3 per talk)",
		Usage:   "companion curtir <palestraId> <perguntaId> [--remover]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("curtir", pflag.ContinueOnError)
			fs.BoolVar(&remove, "remover", false, "remove the like instead")
			return fs
		},
		Run: func(args []string) error {
			if err := exactArgs("curtir", args, 2, "<palestraId> <perguntaId> [--remover]"); err != nil {
				return err
			}
			sess, err := a.session()
			if err != nil {
				return err
			}
			talkID, err := parseID("palestraId", args[0])
			if err != nil {
				return err
			}
			qid, err := parseID("perguntaId", args[1])
			if err != nil {
				return err
			}
			guard := voting.NewLikeGuard(a.client, sess, talkID, a.logger)
			var n int
			if remove {
				n, err = guard.Unlike(a.ctx, qid)
			} else {
				n, err = guard.Like(a.ctx, qid)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Curtidas: %d (você usou %d de %d)\n", n, guard.Used(), voting.MaxLikesPerTalk)
			return nil
		},
	}
}

func (a *app) askCmd() *command {
	var title, description string
	return &command{
		Name:    "perguntar",
		Summary: "Ask a question on a talk",
		Usage:   "companion perguntar <palestraId> --titulo T [--descricao D]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("perguntar", pflag.ContinueOnError)
			fs.StringVar(&title, "titulo", "", "question title")
			fs.StringVar(&description, "descricao", "", "optional details")
			return fs
		},
		Run: func(args []string) error {
			if err := exactArgs("perguntar", args, 1, "<palestraId> --titulo T"); err != nil {
				return err
			}
			sess, err := a.session()
			if err != nil {
				return err
			}
			talkID, err := parseID("palestraId", args[0])
			if err != nil {
				return err
			}
			board := voting.NewBoard(a.client, sess, talkID, a.logger)
			q, err := board.Submit(a.ctx, title, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Pergunta enviada (%s). Ela aparece para todos após aprovação.\n", q.ID)
			return nil
		},
	}
}

// terminalSurface stands in for the camera view.
type terminalSurface struct{ a *app }

func (s terminalSurface) Open() error {
	fmt.Fprintln(s.a.out, "Lendo QR Code...")
	return nil
}

func (s terminalSurface) Close() error { return nil }

func (a *app) attendanceCmd() *command {
	var payloads, images []string
	var rating int
	var comment string
	return &command{
		Name:    "presenca",
		Summary: "Check in with a QR code, or list your check-ins",
		Usage:   "companion presenca [--payload P | --imagem qr.png] [--nota N [--comentario C]]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("presenca", pflag.ContinueOnError)
			fs.StringArrayVar(&payloads, "payload", nil, "scanned QR text (repeatable)")
			fs.StringArrayVar(&images, "imagem", nil, "PNG or JPEG photo of the QR code (repeatable)")
			fs.IntVar(&rating, "nota", 0, "rate the talk right after checking in (1-5)")
			fs.StringVar(&comment, "comentario", "", "comment sent with --nota")
			return fs
		},
		Run: func(args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			if len(payloads) == 0 && len(images) == 0 {
				list, err := a.client.Attendance(a.ctx, sess.ParticipantID())
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, renderAttendance(list))
				return nil
			}

			var src checkin.FrameSource = checkin.NewPayloads(payloads...)
			if len(images) > 0 {
				src = checkin.NewImageSource(images...)
			}
			scanner := checkin.NewScanner(a.client, sess, terminalSurface{a},
				checkin.WithLogger(a.logger),
				checkin.OnRegistered(func(att models.Attendance) {
					fmt.Fprintf(a.out, "Presença registrada em %s.\n", att.RegisteredAt.Format("02/01/2006 15:04"))
				}),
				checkin.OnError(func(err error) {
					fmt.Fprintf(a.out, "Leitura recusada: %s\n", notice.From(err).Message)
				}),
			)
			registered, err := scanner.Run(a.ctx, src)
			if err != nil {
				return err
			}

			if rating == 0 {
				return nil
			}
			fb, err := a.client.SubmitFeedback(a.ctx, api.FeedbackInput{
				ActivityID: registered.ActivityID,
				Rating:     rating,
				Comment:    comment,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Avaliação enviada: %s\n", stars(fb.Rating))
			return nil
		},
	}
}

func (a *app) feedbackCmd() *command {
	var rating int
	var comment string
	var list bool
	return &command{
		Name:    "feedback",
		Summary: "Rate a talk you attended, or list ratings",
		Usage:   "companion feedback <palestraId> --nota N [--comentario C] | feedback --listar [palestraId]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("feedback", pflag.ContinueOnError)
			fs.IntVar(&rating, "nota", 0, "stars, 1 to 5")
			fs.StringVar(&comment, "comentario", "", "optional comment")
			fs.BoolVar(&list, "listar", false, "list your ratings, or a talk's ratings when an id is given")
			return fs
		},
		Run: func(args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			if list {
				var out []models.Feedback
				if len(args) == 1 {
					talkID, err := parseID("palestraId", args[0])
					if err != nil {
						return err
					}
					out, err = a.client.FeedbackByActivity(a.ctx, talkID)
					if err != nil {
						return err
					}
				} else {
					out, err = a.client.FeedbackByParticipant(a.ctx, sess.ParticipantID())
					if err != nil {
						return err
					}
				}
				fmt.Fprintln(a.out, renderFeedback(out))
				return nil
			}

			if err := exactArgs("feedback", args, 1, "<palestraId> --nota N"); err != nil {
				return err
			}
			talkID, err := parseID("palestraId", args[0])
			if err != nil {
				return err
			}
			fb, err := a.client.SubmitFeedback(a.ctx, api.FeedbackInput{ActivityID: talkID, Rating: rating, Comment: comment})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Obrigado pela avaliação! %s\n", stars(fb.Rating))
			return nil
		},
	}
}

// parseAnswers reads "1=2,2=1" (question number = option number, both 1-based) against quiz.
func parseAnswers(quiz *models.Quiz, raw string) (models.QuizSubmission, error) {
	sub := models.QuizSubmission{Answers: make(map[uuid.UUID]uuid.UUID)}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		qPart, oPart, ok := strings.Cut(pair, "=")
		if !ok {
			return sub, usageError{fmt.Sprintf("answer %q must look like pergunta=opcao", pair)}
		}
		qi, err := strconv.Atoi(strings.TrimSpace(qPart))
		if err != nil || qi < 1 || qi > len(quiz.Questions) {
			return sub, usageError{fmt.Sprintf("no question %q in this quiz", qPart)}
		}
		question := quiz.Questions[qi-1]
		oi, err := strconv.Atoi(strings.TrimSpace(oPart))
		if err != nil || oi < 1 || oi > len(question.Options) {
			return sub, usageError{fmt.Sprintf("question %d has no option %q", qi, oPart)}
		}
		sub.Answers[question.ID] = question.Options[oi-1].ID
	}
	return sub, nil
}

func (a *app) quizCmd() *command {
	var answers string
	var release bool
	return &command{
		Name:    "quiz",
		Summary: "List released quizzes, show one, answer it, or release it (admin)",
		Usage:   "companion quiz [quizId] [--responder 1=2,2=1] [--liberar]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("quiz", pflag.ContinueOnError)
			fs.StringVar(&answers, "responder", "", "answers as pergunta=opcao pairs, 1-based")
			fs.BoolVar(&release, "liberar", false, "release the quiz to participants (admin)")
			return fs
		},
		Run: func(args []string) error {
			if _, err := a.session(); err != nil {
				return err
			}
			if len(args) == 0 {
				quizzes, err := a.client.ReleasedQuizzes(a.ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, renderQuizList(quizzes))
				return nil
			}
			if err := exactArgs("quiz", args, 1, "[quizId]"); err != nil {
				return err
			}
			id, err := parseID("quizId", args[0])
			if err != nil {
				return err
			}
			if release {
				if err := a.client.ReleaseQuiz(a.ctx, id); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Quiz liberado.")
				return nil
			}
			quiz, err := a.client.Quiz(a.ctx, id)
			if err != nil {
				return err
			}
			if answers == "" {
				fmt.Fprintln(a.out, renderQuiz(quiz))
				return nil
			}
			sub, err := parseAnswers(quiz, answers)
			if err != nil {
				return err
			}
			res, err := a.client.AnswerQuiz(a.ctx, id, sub)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Você acertou %d de %d.\n", res.Correct, res.Total)
			return nil
		},
	}
}

func (a *app) profileCmd() *command {
	var name, company, jobTitle, city, phone, photo string
	return &command{
		Name:    "perfil",
		Summary: "Show or edit your profile",
		Usage:   "companion perfil [--nome N] [--empresa E] [--cargo C] [--cidade C] [--telefone T] [--foto foto.jpg]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("perfil", pflag.ContinueOnError)
			fs.StringVar(&name, "nome", "", "display name")
			fs.StringVar(&company, "empresa", "", "company")
			fs.StringVar(&jobTitle, "cargo", "", "job title")
			fs.StringVar(&city, "cidade", "", "city")
			fs.StringVar(&phone, "telefone", "", "phone")
			fs.StringVar(&photo, "foto", "", "upload a profile photo (jpg, png or webp)")
			return fs
		},
		Run: func(args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			pid := sess.ParticipantID()

			if photo != "" {
				if err := a.uploadPhoto(pid, photo); err != nil {
					return err
				}
			}

			var upd models.ProfileUpdate
			set := func(dst **string, v string) {
				if v != "" {
					*dst = &v
				}
			}
			set(&upd.Name, name)
			set(&upd.Company, company)
			set(&upd.JobTitle, jobTitle)
			set(&upd.City, city)
			set(&upd.Phone, phone)

			var profile *models.Profile
			if upd != (models.ProfileUpdate{}) {
				profile, err = a.client.UpdateProfile(a.ctx, pid, upd)
			} else {
				profile, err = a.client.Profile(a.ctx, pid)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, renderProfile(profile))
			return nil
		},
	}
}

func (a *app) uploadPhoto(pid uuid.UUID, path string) error {
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		return usageError{fmt.Sprintf("unknown image type for %s", path)}
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	dest, err := a.client.PhotoUploadURL(a.ctx, pid, contentType)
	if err != nil {
		return err
	}
	if err := a.client.PutPhoto(a.ctx, dest.UploadURL, contentType, f, info.Size()); err != nil {
		return err
	}
	a.logger.Info("profile photo uploaded", zap.String("key", dest.Key))
	return nil
}

func (a *app) drawCmd() *command {
	var f models.DrawFilter
	var talk string
	var draw bool
	return &command{
		Name:    "sorteio",
		Summary: "Engagement dashboard and prize drawing (admin)",
		Usage:   "companion sorteio [--min-presencas N] [--min-feedbacks N] [--min-perguntas N] [--palestra ID] [--tipo T] [--ordenar K] [--ordem asc|desc] [--sortear]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("sorteio", pflag.ContinueOnError)
			fs.IntVar(&f.MinAttendance, "min-presencas", 0, "minimum check-ins")
			fs.IntVar(&f.MinFeedback, "min-feedbacks", 0, "minimum ratings")
			fs.IntVar(&f.MinQuestions, "min-perguntas", 0, "minimum questions asked")
			fs.StringVar(&talk, "palestra", "", "only count engagement on this activity")
			fs.StringVar(&f.ActivityType, "tipo", "", "only count engagement on activities of this type")
			fs.StringVar(&f.SortBy, "ordenar", models.SortByTotal, "presencas, feedbacks, perguntas or total")
			fs.StringVar(&f.Order, "ordem", "desc", "asc or desc")
			fs.BoolVar(&draw, "sortear", false, "draw a winner among the filtered participants")
			return fs
		},
		Run: func(args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			if !sess.Participant.IsAdmin() {
				return &api.Error{Kind: api.KindUnauthorized, Op: api.OpEngagement, Status: 403, Message: "admin only"}
			}
			if talk != "" {
				id, err := parseID("palestra", talk)
				if err != nil {
					return err
				}
				f.ActivityID = &id
			}
			if draw {
				res, err := a.client.Draw(a.ctx, f)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, renderWinner(res))
				return nil
			}
			rows, err := a.client.Engagement(a.ctx, f)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, renderEngagement(rows))
			return nil
		},
	}
}
