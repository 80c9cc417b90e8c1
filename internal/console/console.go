// Package console runs the interactive conversation: one utterance per
// line, follow-up questions for missing details, confirmation before
// anything is written.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"agendacal/internal/assemble"
	"agendacal/internal/assistant"
	"agendacal/internal/calendar"
	appLog "agendacal/internal/log"
	"agendacal/internal/model"
	"agendacal/internal/notify"
)

// Options wires a Session.
type Options struct {
	In  *bufio.Reader
	Out io.Writer

	Interpreter *assistant.Interpreter
	Sink        calendar.Sink
	Source      calendar.Source

	// Notifier and Recipient are optional; without a recipient nothing is
	// sent.
	Notifier  notify.Notifier
	Recipient string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Session is a single-user console conversation. It is not safe for
// concurrent use.
type Session struct {
	in  *bufio.Reader
	out io.Writer

	interp    *assistant.Interpreter
	assembler *assemble.Assembler
	sink      calendar.Sink
	source    calendar.Source
	notifier  notify.Notifier
	recipient string
	now       func() time.Time

	st styles
}

// New creates a Session.
func New(opts Options) *Session {
	dur := opts.Interpreter.Settings().DefaultDurationMinutes
	if dur <= 0 {
		dur = model.DefaultDurationMinutes
	}
	s := &Session{
		in:        opts.In,
		out:       opts.Out,
		interp:    opts.Interpreter,
		assembler: assemble.New(dur),
		sink:      opts.Sink,
		source:    opts.Source,
		notifier:  opts.Notifier,
		recipient: opts.Recipient,
		now:       opts.Now,
		st:        newStyles(opts.Out),
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

var exitWords = map[string]bool{"salir": true, "exit": true, "quit": true}

// Run greets the user and handles lines until an exit word, an empty line,
// end of input or ctx cancellation.
func (s *Session) Run(ctx context.Context) error {
	s.greet()
	for {
		line, ok := s.ask(ctx, "\nDime: → ")
		if !ok || line == "" || exitWords[strings.ToLower(line)] {
			s.println("Hasta luego 👋")
			return nil
		}
		s.Handle(ctx, line)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Handle processes one utterance. Failures are reported to the user and
// never end the session.
func (s *Session) Handle(ctx context.Context, line string) {
	in := s.interp.Interpret(line, s.now())

	switch {
	case in.Range != nil:
		s.showAgenda(ctx, *in.Range)
	case in.Draft != nil:
		s.create(ctx, *in.Draft)
	default:
		s.println("Puedo agendar y también listar tu agenda. Prueba: 'qué debo hacer hoy?' o 'qué tareas tengo para mañana?'")
	}
}

func (s *Session) greet() {
	s.println(s.st.title.Render("=== Asistente de agenda ==="))
	s.println("Puedes decir cosas como:")
	s.println(s.st.faint.Render("  - 'agenda una cita mañana a las 3pm con el dentista en zona 10 por 45 minutos'"))
	s.println(s.st.faint.Render("  - 'qué debo hacer hoy?'  |  'qué tareas tengo para mañana?'  |  'ver mi agenda de esta semana'"))
	s.println("Escribe 'salir' para terminar.")
}

func (s *Session) showAgenda(ctx context.Context, r model.TimeRange) {
	occ, err := s.source.List(ctx, r)
	if err != nil {
		appLog.Error("console list failed", err)
		s.println(s.st.err.Render("❌ No pude leer tu agenda: " + err.Error()))
		return
	}
	loc := s.interp.Settings().Location
	if len(occ) == 0 {
		s.println(assistant.EmptyAgenda)
		return
	}
	s.println("\n" + s.st.title.Render("Tus eventos:"))
	for _, o := range occ {
		s.println(assistant.AgendaLine(o, loc))
	}
}

func (s *Session) create(ctx context.Context, draft model.PendingEvent) {
	ev, err := s.assembler.Complete(ctx, draft, &prompter{s: s})
	if err != nil {
		if errors.Is(err, assemble.ErrIncompleteDraft) {
			s.println("Faltan datos esenciales (fecha/hora y título). Inténtalo de nuevo.")
		}
		return
	}

	s.summary(ev)
	answer, _ := s.ask(ctx, "¿Confirmo y creo el evento? (s/n) → ")
	if !strings.HasPrefix(strings.ToLower(answer), "s") {
		s.println("Cancelado.")
		return
	}

	created, err := s.sink.Create(ctx, ev)
	if err != nil {
		appLog.Error("console create failed", err)
		s.println(s.st.err.Render("❌ Error creando el evento: " + err.Error()))
		return
	}
	s.println("\n" + s.st.ok.Render("✅ Evento creado."))
	if created.Link != "" {
		s.println("Enlace: " + created.Link)
	}

	if s.recipient == "" {
		return
	}
	body := notify.CreatedBody(ev, created.Link, s.interp.Settings().Location)
	if err := s.notifier.Notify(ctx, s.recipient, notify.CreatedSubject, body); err != nil {
		appLog.Error("console notify failed", err)
		s.println(s.st.err.Render("Error enviando correo: " + err.Error()))
		return
	}
}

func (s *Session) summary(ev model.PendingEvent) {
	loc := s.interp.Settings().Location
	where := ev.Location
	if where == "" {
		where = "—"
	}
	s.println("\n" + s.st.title.Render("Resumen del evento:"))
	s.println(s.st.label.Render("  Título   :") + " " + ev.Title)
	s.println(s.st.label.Render("  Inicio   :") + " " + ev.Start.In(loc).Format("02/01 15:04") + " " + loc.String())
	s.println(s.st.label.Render("  Duración :") + fmt.Sprintf(" %d min", ev.DurationMinutes))
	s.println(s.st.label.Render("  Lugar    :") + " " + where)
	s.println("")
}

// ask prints prompt and reads one trimmed line. ok is false at end of
// input or when ctx is done.
func (s *Session) ask(ctx context.Context, prompt string) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}
	fmt.Fprint(s.out, prompt)
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (s *Session) println(text string) {
	fmt.Fprintln(s.out, text)
}
