package assistant

import (
	"strings"
	"time"

	"agendacal/internal/model"
)

// EmptyAgenda is shown when a range has no events.
const EmptyAgenda = "No tienes eventos en ese rango ✨"

// AgendaLine renders one occurrence as "- dd/mm HH:MM-HH:MM · title", or
// "- Todo el día · title" for all-day events.
func AgendaLine(o model.Occurrence, loc *time.Location) string {
	if o.AllDay {
		return "- Todo el día · " + o.Title
	}
	if loc == nil {
		loc = time.Local
	}
	return "- " + o.Start.In(loc).Format("02/01 15:04") + "-" + o.End.In(loc).Format("15:04") + " · " + o.Title
}

// AgendaText renders a whole listing as plain text.
func AgendaText(occ []model.Occurrence, loc *time.Location) string {
	if len(occ) == 0 {
		return EmptyAgenda + "\n"
	}
	var b strings.Builder
	b.WriteString("Tus eventos:\n")
	for _, o := range occ {
		b.WriteString(AgendaLine(o, loc))
		b.WriteByte('\n')
	}
	return b.String()
}
