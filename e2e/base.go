package e2e

import (
	"context"
	"fmt"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"

	"chat-console/api"
	"chat-console/channel"
	"chat-console/notify"
	"chat-console/session"
)

const typingTimeout = 300 * time.Millisecond

// BaseChatSuite owns the stub server and builds full client stacks
// (api + channel + session) connected to it.
type BaseChatSuite struct {
	suite.Suite
	Config Config
	Server *stubServer

	cancels []context.CancelFunc
}

func (s *BaseChatSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.Server = newStubServer(s.Config.DebugEvents)
}

func (s *BaseChatSuite) TearDownSuite() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.Server.close()
}

// Step prints a colorized header so scenario logs read as a script.
func (s *BaseChatSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Connect builds one full client stack for a username and waits until
// its event channel is registered with the stub server.
func (s *BaseChatSuite) Connect(username string) *session.Controller {
	log := logs.GetLoggerFromString(s.Config.LogLevel)
	client := api.NewClient(s.Server.baseURL(), log)

	alerts := notify.NewManager(silentNotifier{}, neverFocused{}, log)
	alerts.SetPermission(notify.PermissionGranted)

	var controller *session.Controller
	events := channel.NewClient(s.Server.wsURL(), username, log,
		channel.WithResync(func(ctx context.Context) error {
			return controller.Resync(ctx)
		}))
	controller = session.NewController(username, events, client, alerts, log,
		session.WithTypingTimeout(typingTimeout))
	events.AddSinks(controller)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancels = append(s.cancels, cancel)
	go func() { _ = events.Run(ctx) }()

	s.Eventually(func() bool {
		return s.Server.connected(username)
	}, 5*time.Second, 10*time.Millisecond, "client %s never connected", username)
	return controller
}

// WaitFor polls a client-side condition until the events settle.
func (s *BaseChatSuite) WaitFor(condition func() bool, msg string) {
	s.Eventually(condition, 5*time.Second, 10*time.Millisecond, msg)
}

type silentNotifier struct{}

func (silentNotifier) Notify(title, body string) error { return nil }

type neverFocused struct{}

func (neverFocused) Focused() bool { return false }

// hasRosterEntry reports whether a controller's roster lists a user.
func hasRosterEntry(c *session.Controller, username string) bool {
	for _, e := range c.RosterEntries() {
		if e.Username == username {
			return true
		}
	}
	return false
}
