package main

import (
	"bufio"
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"agendacal/internal/assistant"
	"agendacal/internal/calendar"
	"agendacal/internal/console"
	"agendacal/internal/digest"
	"agendacal/internal/gcal"
	"agendacal/internal/notify"
	"agendacal/internal/web"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive assistant (default)",
		Args:  cobra.NoArgs,
		RunE:  runChat,
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return fail(cmd, err)
	}
	ctx := cmd.Context()

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	backend, err := calendar.Open(ctx, a.cfg, a.settings, gcal.LinePrompter{In: in, Out: out})
	if err != nil {
		return fail(cmd, err)
	}

	s := console.New(console.Options{
		In:          in,
		Out:         out,
		Interpreter: a.interp,
		Sink:        backend,
		Source:      backend,
		Notifier:    notify.New(a.cfg.Notify),
		Recipient:   a.cfg.Notify.Recipient,
	})
	return s.Run(ctx)
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text...>",
		Short: "Print how a sentence is interpreted, as JSON",
		Long: `Print the intent, the extracted draft and the list range for a sentence.
Nothing is written to the calendar.

Examples:
  agendacal parse "agenda una cita mañana a las 3pm con el dentista"
  agendacal parse qué tareas tengo para mañana`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return fail(cmd, err)
			}
			res := a.interp.Interpret(strings.Join(args, " "), time.Now())

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(res)
		},
	}
}

func newAgendaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agenda [hoy|mañana|semana|DD/MM]",
		Short: "List the agenda of a day or of the next seven days",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return fail(cmd, err)
			}
			ctx := cmd.Context()

			r, err := a.interp.Range(strings.Join(args, " "), time.Now())
			if err != nil {
				return fail(cmd, err)
			}
			prompter := gcal.LinePrompter{In: bufio.NewReader(cmd.InOrStdin()), Out: cmd.ErrOrStderr()}
			backend, err := calendar.Open(ctx, a.cfg, a.settings, prompter)
			if err != nil {
				return fail(cmd, err)
			}
			occ, err := backend.List(ctx, r)
			if err != nil {
				return fail(cmd, err)
			}
			_, err = cmd.OutOrStdout().Write([]byte(assistant.AgendaText(occ, a.settings.Location)))
			return err
		},
	}
}

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return fail(cmd, err)
			}
			if listen != "" {
				a.cfg.Listen = listen
			}
			ctx := cmd.Context()

			// No prompter: a server cannot run the consent flow.
			backend, err := calendar.Open(ctx, a.cfg, a.settings, nil)
			if err != nil {
				return fail(cmd, err)
			}
			srv := web.NewServer(a.cfg, a.interp, backend, notify.New(a.cfg.Notify))
			if err := srv.Serve(ctx); err != nil {
				return fail(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func newDigestCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Mail today's agenda on the digest_cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return fail(cmd, err)
			}
			ctx := cmd.Context()

			backend, err := calendar.Open(ctx, a.cfg, a.settings, nil)
			if err != nil {
				return fail(cmd, err)
			}
			d := digest.New(backend, notify.New(a.cfg.Notify), a.cfg.Notify.Recipient, a.settings.Location)
			if once {
				if err := d.Send(ctx); err != nil {
					return fail(cmd, err)
				}
				return nil
			}
			if err := d.Run(ctx, a.cfg.DigestCron); err != nil {
				return fail(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Send one digest now and exit")
	return cmd
}
