// Package ctl implements the subtrackctl admin commands.
package ctl

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"subtrack/internal/core"
	"subtrack/internal/i18n"
	"subtrack/internal/services"
	"subtrack/internal/storage"
)

// App is what the commands operate on.
type App struct {
	Store    storage.Store
	Service  *services.SubscriptionService
	Notifier services.AlertNotifier
	Locale   core.Locale
	Now      func() time.Time
}

// Opener builds an App for one invocation; the returned func releases it.
type Opener func(ctx context.Context) (*App, func(), error)

var errNoUser = errors.New("--user is required")

type rootState struct {
	open    Opener
	app     *App
	release func()

	user string
	lang string
}

// Execute runs the command tree with os.Args and releases the app even when
// the command fails.
func Execute(ctx context.Context, open Opener) error {
	root, st := newRoot(open)
	defer st.close()
	return root.ExecuteContext(ctx)
}

// NewRootCmd returns the subtrackctl command tree.
func NewRootCmd(open Opener) *cobra.Command {
	root, _ := newRoot(open)
	return root
}

func newRoot(open Opener) (*cobra.Command, *rootState) {
	st := &rootState{open: open}

	root := &cobra.Command{
		Use:           "subtrackctl",
		Short:         "Inspect and manage subscriptions from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app, release, err := st.open(cmd.Context())
			if err != nil {
				return err
			}
			if app.Now == nil {
				app.Now = time.Now
			}
			st.app, st.release = app, release
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			st.close()
		},
	}
	root.PersistentFlags().StringVarP(&st.user, "user", "u", "", "User id to operate on")
	root.PersistentFlags().StringVar(&st.lang, "lang", "", "Locale for labels (en, tr, de, fr, es)")

	root.AddCommand(
		newListCmd(st),
		newAddCmd(st),
		newDeleteCmd(st),
		newSummaryCmd(st),
		newAlertsCmd(st),
	)
	return root, st
}

func (st *rootState) close() {
	if st.release != nil {
		st.release()
		st.release = nil
	}
}

func (st *rootState) requireUser() (string, error) {
	if st.user == "" {
		return "", errNoUser
	}
	return st.user, nil
}

func (st *rootState) locale() core.Locale {
	return i18n.Negotiate(st.lang, "", st.app.Locale)
}

func (st *rootState) today() core.Date {
	return core.DateOf(st.app.Now())
}
