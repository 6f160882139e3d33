package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/malko42/queue"
)

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "list",
			Usage:  "List queues",
			Action: listAction,
		},
		{
			Name:      "create",
			Usage:     "Create a queue, or update the attributes of an existing one",
			ArgsUsage: "NAME",
			Flags:     attributeFlags(),
			Action:    createAction,
		},
		{
			Name:      "exists",
			Usage:     "Report whether a queue exists",
			ArgsUsage: "NAME",
			Action:    existsAction,
		},
		{
			Name:      "send",
			Usage:     "Send a message",
			ArgsUsage: "NAME BODY",
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:  "delay",
					Usage: "Delay overriding the queue delay",
				},
			},
			Action: sendAction,
		},
		{
			Name:      "receive",
			Usage:     "Receive a message, hiding it for the visibility timeout",
			ArgsUsage: "NAME",
			Action:    receiveAction,
		},
		{
			Name:      "pop",
			Usage:     "Receive and delete a message",
			ArgsUsage: "NAME",
			Action:    popAction,
		},
		{
			Name:      "delete",
			Usage:     "Delete a message",
			ArgsUsage: "NAME ID",
			Action:    deleteAction,
		},
		{
			Name:      "attrs",
			Usage:     "Show queue attributes, setting any given first",
			ArgsUsage: "NAME",
			Flags:     attributeFlags(),
			Action:    attrsAction,
		},
		{
			Name:      "destroy",
			Usage:     "Delete a queue and all its messages",
			ArgsUsage: "NAME",
			Action:    destroyAction,
		},
	}
}

func args(c *cli.Context, names ...string) ([]string, error) {
	if c.NArg() != len(names) {
		return nil, fmt.Errorf("%s: expected arguments %s", c.Command.Name, strings.Join(names, " "))
	}
	return c.Args().Slice(), nil
}

func attributesFromFlags(c *cli.Context) []queue.Attribute {
	var attrs []queue.Attribute
	if c.IsSet("vt") {
		attrs = append(attrs, queue.WithVisibilityTimeout(c.Duration("vt")))
	}
	if c.IsSet("delay") {
		attrs = append(attrs, queue.WithDelay(c.Duration("delay")))
	}
	if c.IsSet("maxsize") {
		attrs = append(attrs, queue.WithMaxSize(c.Int("maxsize")))
	}
	return attrs
}

func listAction(c *cli.Context) error {
	return withHandle(c, func(h *queue.Handle) error {
		names, err := h.Queues(c.Context)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(c.App.Writer, n)
		}
		return nil
	})
}

func createAction(c *cli.Context) error {
	a, err := args(c, "NAME")
	if err != nil {
		return err
	}
	return withHandle(c, func(h *queue.Handle) error {
		ok, err := h.Create(c.Context, a[0], attributesFromFlags(c)...)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, ok)
		return nil
	})
}

func existsAction(c *cli.Context) error {
	a, err := args(c, "NAME")
	if err != nil {
		return err
	}
	return withHandle(c, func(h *queue.Handle) error {
		ok, err := h.Exists(c.Context, a[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, ok)
		return nil
	})
}

func sendAction(c *cli.Context) error {
	a, err := args(c, "NAME", "BODY")
	if err != nil {
		return err
	}
	return withHandle(c, func(h *queue.Handle) error {
		if err := bind(c, h, a[0]); err != nil {
			return err
		}
		var id string
		if c.IsSet("delay") {
			id, err = h.SendDelayed(c.Context, a[1], c.Duration("delay"))
		} else {
			id, err = h.Send(c.Context, a[1])
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, id)
		return nil
	})
}

func receiveAction(c *cli.Context) error {
	return fetch(c, func(h *queue.Handle) (*queue.Message, error) { return h.ReceiveMessage(c.Context) })
}

func popAction(c *cli.Context) error {
	return fetch(c, func(h *queue.Handle) (*queue.Message, error) { return h.PopMessage(c.Context) })
}

func fetch(c *cli.Context, get func(h *queue.Handle) (*queue.Message, error)) error {
	a, err := args(c, "NAME")
	if err != nil {
		return err
	}
	return withHandle(c, func(h *queue.Handle) error {
		if err := bind(c, h, a[0]); err != nil {
			return err
		}
		m, err := get(h)
		if err != nil {
			return err
		}
		if m == nil {
			return nil
		}
		fmt.Fprintf(c.App.Writer, "%s\t%d\t%s\n", m.ID, m.ReceiveCount, m.Body)
		return nil
	})
}

func deleteAction(c *cli.Context) error {
	a, err := args(c, "NAME", "ID")
	if err != nil {
		return err
	}
	return withHandle(c, func(h *queue.Handle) error {
		if err := bind(c, h, a[0]); err != nil {
			return err
		}
		ok, err := h.DeleteMessage(c.Context, a[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, ok)
		return nil
	})
}

func attrsAction(c *cli.Context) error {
	a, err := args(c, "NAME")
	if err != nil {
		return err
	}
	return withHandle(c, func(h *queue.Handle) error {
		if err := bind(c, h, a[0]); err != nil {
			return err
		}
		if attrs := attributesFromFlags(c); len(attrs) > 0 {
			if _, err := h.SetAttributes(c.Context, attrs...); err != nil {
				return err
			}
		}
		qa, err := h.Attributes(c.Context)
		if err != nil {
			return err
		}
		w := c.App.Writer
		fmt.Fprintf(w, "vt\t%s\n", qa.VisibilityTimeout)
		fmt.Fprintf(w, "delay\t%s\n", qa.Delay)
		fmt.Fprintf(w, "maxsize\t%d\n", qa.MaxSize)
		fmt.Fprintf(w, "msgs\t%d\n", qa.Messages)
		fmt.Fprintf(w, "hiddenmsgs\t%d\n", qa.HiddenMessages)
		fmt.Fprintf(w, "totalsent\t%d\n", qa.TotalSent)
		fmt.Fprintf(w, "totalrecv\t%d\n", qa.TotalReceived)
		return nil
	})
}

func destroyAction(c *cli.Context) error {
	a, err := args(c, "NAME")
	if err != nil {
		return err
	}
	return withHandle(c, func(h *queue.Handle) error {
		if err := bind(c, h, a[0]); err != nil {
			return err
		}
		ok, err := h.Destroy(c.Context)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, ok)
		return nil
	})
}
