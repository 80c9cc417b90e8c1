package console

import (
	"context"
	"strconv"
	"time"
)

// prompter answers the assembler's follow-up questions from the console.
// An empty answer leaves the slot unset.
type prompter struct {
	s *Session
}

func (p *prompter) AskDateTime(ctx context.Context) (time.Time, bool) {
	for {
		answer, ok := p.s.ask(ctx, "¿Para cuándo es la cita? (ej.: 'mañana 3pm', '12/09 14:30') → ")
		if !ok || answer == "" {
			return time.Time{}, false
		}
		if t, err := p.s.interp.Resolve(answer, p.s.now()); err == nil {
			return t, true
		}
		p.s.println("No entendí la fecha/hora. Prueba otro formato.")
	}
}

func (p *prompter) AskTitle(ctx context.Context) (string, bool) {
	answer, ok := p.s.ask(ctx, "¿Cómo se llama la cita? (ej.: 'Dentista', 'Reunión con Ana') → ")
	return answer, ok && answer != ""
}

func (p *prompter) AskLocation(ctx context.Context) (string, bool) {
	answer, ok := p.s.ask(ctx, "¿Dónde es? (dirección, 'online', 'oficina', etc.) → ")
	return answer, ok && answer != ""
}

func (p *prompter) AskDuration(ctx context.Context) (int, bool) {
	prompt := "¿Duración en minutos? (Enter para usar " + strconv.Itoa(p.s.assembler.DefaultDuration) + ") → "
	answer, ok := p.s.ask(ctx, prompt)
	if !ok || answer == "" {
		return 0, false
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
