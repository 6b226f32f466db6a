package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	inboxcommand "github.com/goliatone/go-station-inbox/command"
	"github.com/goliatone/go-station-inbox/core"
	inboxquery "github.com/goliatone/go-station-inbox/query"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

// AddQueueResolver mirrors registered commands into a go-job queue registry so
// slow moderation commands can run on a worker.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// SubscribeQuery only subscribes: queries are answered in process and are
// never mirrored into the queue registry.
func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

// Subscriptions collects the dispatcher subscriptions created by RegisterInbox.
type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, subscription := range s {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
}

// RegisterInbox wires every inbox command and query handler into the
// dispatcher. Commands are also registered with the adapter's registry.
func RegisterInbox(adapter *RegistryAdapter, service core.InboxService, runnerOpts ...runner.Option) (Subscriptions, error) {
	if service == nil {
		return nil, fmt.Errorf("gocommand: inbox service is required")
	}
	subscriptions := Subscriptions{}
	fail := func(err error) (Subscriptions, error) {
		subscriptions.Unsubscribe()
		return nil, err
	}

	commandRegistrations := []func() (commanddispatcher.Subscription, error){
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe[inboxcommand.UploadPhotoMessage](adapter, inboxcommand.NewUploadPhotoCommand(service), runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe[inboxcommand.ReportProblemMessage](adapter, inboxcommand.NewReportProblemCommand(service), runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe[inboxcommand.ProcessAdminCommandMessage](adapter, inboxcommand.NewProcessAdminCommand(service), runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe[inboxcommand.DeleteUserInboxEntryMessage](adapter, inboxcommand.NewDeleteUserInboxEntryCommand(service), runnerOpts...)
		},
	}
	for _, register := range commandRegistrations {
		subscription, err := register()
		if err != nil {
			return fail(err)
		}
		subscriptions = append(subscriptions, subscription)
	}

	subscriptions = append(subscriptions,
		SubscribeQuery[inboxquery.ListAdminInboxMessage, []core.AdminInboxEntry](inboxquery.NewListAdminInboxQuery(service), runnerOpts...),
		SubscribeQuery[inboxquery.UserInboxMessage, []core.InboxStateQuery](inboxquery.NewUserInboxQuery(service), runnerOpts...),
		SubscribeQuery[inboxquery.PublicInboxMessage, []core.PublicInboxEntry](inboxquery.NewPublicInboxQuery(service), runnerOpts...),
		SubscribeQuery[inboxquery.CountPendingInboxEntriesMessage, int](inboxquery.NewCountPendingInboxEntriesQuery(service), runnerOpts...),
		SubscribeQuery[inboxquery.NextZMessage, string](inboxquery.NewNextZQuery(service), runnerOpts...),
		SubscribeQuery[inboxquery.ListRecentImportsMessage, []core.Station](inboxquery.NewListRecentImportsQuery(service), runnerOpts...),
		SubscribeQuery[inboxquery.PickRecentImportMessage, inboxquery.RecentImportPick](inboxquery.NewPickRecentImportQuery(service), runnerOpts...),
		SubscribeQuery[inboxquery.ListPhotographerStationsMessage, []core.Station](inboxquery.NewListPhotographerStationsQuery(service), runnerOpts...),
	)
	return subscriptions, nil
}
