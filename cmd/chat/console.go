package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gookit/color"

	"chat-console/domain"
	"chat-console/session"
	"chat-console/view"
)

// Console is the interactive front-end: one line per action, slash
// commands for everything that is not a plain message.
type Console struct {
	controller *session.Controller
	log        *slog.Logger
	in         io.Reader
	out        io.Writer
}

func NewConsole(controller *session.Controller, log *slog.Logger) *Console {
	return &Console{controller: controller, log: log, in: os.Stdin, out: os.Stdout}
}

func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	c.printHelp()
	c.log.Debug("Console ready")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := c.handle(ctx, strings.TrimSpace(line)); err != nil {
				fmt.Fprintln(c.out, color.Red.Render(err))
			}
			if msg := c.controller.LastError(); msg != "" {
				fmt.Fprintln(c.out, color.Red.Render(msg))
			}
		}
	}
}

func (c *Console) handle(ctx context.Context, line string) error {
	if line == "" {
		c.repaint()
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		c.controller.SetText(line)
		if err := c.controller.Send(ctx); err != nil {
			return err
		}
		c.repaint()
		return nil
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/open":
		if len(args) != 1 {
			return fmt.Errorf("usage: /open <user|group-N>")
		}
		if err := c.controller.Open(ctx, domain.ConversationID(args[0])); err != nil {
			return err
		}
		c.repaint()

	case "/close":
		c.controller.Close()

	case "/users":
		printRoster(c.out, c.controller.RosterEntries(), c.controller.Badges())

	case "/groups":
		printGroups(c.out, c.controller.GroupList(), c.controller.Badges())

	case "/attach":
		if len(args) != 1 {
			return fmt.Errorf("usage: /attach <path>")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return c.controller.AttachFile(filepath.Base(args[0]), "", data)

	case "/detach":
		c.controller.ClearAttachment()

	case "/record":
		recording, err := c.controller.ToggleRecording(ctx)
		if err != nil {
			return err
		}
		if recording {
			fmt.Fprintln(c.out, color.Yellow.Render("recording... /record again to stop"))
		} else {
			fmt.Fprintln(c.out, color.Yellow.Render("recording attached"))
		}

	case "/reply":
		id, err := msgID(args)
		if err != nil {
			return err
		}
		return c.controller.SetReply(id)

	case "/react":
		if len(args) != 2 {
			return fmt.Errorf("usage: /react <msg-id> <emoji>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bad message id %q", args[0])
		}
		return c.controller.ToggleReaction(id, args[1])

	case "/del":
		id, err := msgID(args)
		if err != nil {
			return err
		}
		if err = c.controller.DeleteMessage(ctx, id); err != nil {
			return err
		}
		c.repaint()

	case "/group-create":
		if len(args) < 2 {
			return fmt.Errorf("usage: /group-create <name> <member,member,...>")
		}
		groupID, err := c.controller.CreateGroup(ctx, domain.CreateGroupCommand{
			Name:    args[0],
			Members: strings.Split(args[1], ","),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, color.Green.Render(fmt.Sprintf("created group-%d", groupID)))

	case "/group-delete":
		return c.groupAction(ctx, args, c.controller.DeleteGroup)

	case "/mute":
		return c.groupAction(ctx, args, c.controller.MuteGroup)

	case "/unmute":
		return c.groupAction(ctx, args, c.controller.UnmuteGroup)

	case "/leave":
		return c.groupAction(ctx, args, c.controller.LeaveGroup)

	case "/help":
		c.printHelp()

	default:
		return fmt.Errorf("unknown command %s, try /help", cmd)
	}
	return nil
}

func (c *Console) groupAction(ctx context.Context, args []string, fn func(context.Context, int64) error) error {
	if len(args) != 1 {
		return fmt.Errorf("expected a group id")
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "group-"), 10, 64)
	if err != nil {
		return fmt.Errorf("bad group id %q", args[0])
	}
	return fn(ctx, id)
}

func (c *Console) repaint() {
	active := c.controller.Active()
	if active == "" {
		fmt.Fprintln(c.out, color.Gray.Render("no open conversation, /open one"))
		return
	}
	fmt.Fprintln(c.out, color.Bold.Render(fmt.Sprintf("--- %s ---", active)))
	printTimeline(c.out, c.controller.Nodes())
	if from := c.controller.TypingFrom(); from != "" {
		indicator := view.RenderTyping(from)
		fmt.Fprintln(c.out, color.Gray.Render(fmt.Sprintf("%s %s", indicator.Attrs["from"], indicator.Text)))
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, color.Gray.Render(`commands:
  /open <user|group-N>   open a conversation       /users            roster
  /groups                list groups               /attach <path>    select a file
  /detach                drop the selection        /record           toggle audio capture
  /reply <id>            reply to a message        /react <id> <e>   toggle a reaction
  /del <id>              delete a message          /close            close the conversation
  /group-create <name> <members>                   /group-delete | /mute | /unmute | /leave <id>
anything else is sent as a message; an empty line repaints`))
}

func msgID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected a message id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad message id %q", args[0])
	}
	return id, nil
}
