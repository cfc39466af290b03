package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/svcdeck/svcdeck/pkg/client"
)

func newClient(api *APIFlags) (*client.Client, context.Context, context.CancelFunc) {
	cfg := client.DefaultConfig()
	if api.URL != "" {
		cfg.BaseURL = api.URL
	}
	if api.Timeout > 0 {
		cfg.Timeout = api.Timeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	return client.New(cfg), ctx, cancel
}

func printStatuses(sts []client.ServiceStatus) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSTATUS\tPID\tPORT\tUPTIME\tHEALTH\tCPU%\tMEM(MB)\tAUTO\tRESTARTS")
	for _, st := range sts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%ds\t%s\t%.1f\t%d\t%v\t%d\n",
			st.Name, st.Status, st.PID, st.Port, st.UptimeSeconds, st.Health,
			st.CPUPercent, st.MemoryMB, st.AutoRestart, st.Restarts)
	}
	_ = w.Flush()
}

func runStatus(api *APIFlags, name string) error {
	c, ctx, cancel := newClient(api)
	defer cancel()
	if name == "" {
		sts, err := c.Status(ctx)
		if err != nil {
			return err
		}
		printStatuses(sts)
		return nil
	}
	st, err := c.StatusOne(ctx, name)
	if err != nil {
		return err
	}
	printStatuses([]client.ServiceStatus{st})
	return nil
}

func runHealth(api *APIFlags, name string) error {
	c, ctx, cancel := newClient(api)
	defer cancel()
	v, err := c.CheckHealth(ctx, name)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", name, v)
	return nil
}

func runStart(api *APIFlags, name string) error {
	c, ctx, cancel := newClient(api)
	defer cancel()
	if err := c.Start(ctx, name); err != nil {
		return err
	}
	fmt.Printf("%s: started\n", name)
	return nil
}

func runStop(api *APIFlags, name string) error {
	c, ctx, cancel := newClient(api)
	defer cancel()
	stopped, err := c.Stop(ctx, name)
	if err != nil {
		return err
	}
	if stopped {
		fmt.Printf("%s: stopped\n", name)
	} else {
		fmt.Printf("%s: nothing to stop\n", name)
	}
	return nil
}

func runRestart(api *APIFlags, name string) error {
	c, ctx, cancel := newClient(api)
	defer cancel()
	if err := c.Restart(ctx, name); err != nil {
		return err
	}
	fmt.Printf("%s: restarted\n", name)
	return nil
}

func runStartAll(api *APIFlags) error {
	c, ctx, cancel := newClient(api)
	defer cancel()
	lines, err := c.StartAll(ctx)
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Println(l)
	}
	return nil
}

func runStopAll(api *APIFlags) error {
	c, ctx, cancel := newClient(api)
	defer cancel()
	lines, err := c.StopAll(ctx)
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Println(l)
	}
	return nil
}

func runAutoRestart(api *APIFlags, name string, enabled bool) error {
	c, ctx, cancel := newClient(api)
	defer cancel()
	if err := c.SetAutoRestart(ctx, name, enabled); err != nil {
		return err
	}
	fmt.Printf("%s: auto-restart %v\n", name, enabled)
	return nil
}

func runTailLogs(api *APIFlags, name string, lines int) error {
	c, ctx, cancel := newClient(api)
	defer cancel()
	entries, err := c.TailLogs(ctx, name, lines)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Println(e.Message)
	}
	return nil
}

func runClearLogs(api *APIFlags, name string) error {
	c, ctx, cancel := newClient(api)
	defer cancel()
	if err := c.ClearLogs(ctx, name); err != nil {
		return err
	}
	fmt.Printf("%s: logs cleared\n", name)
	return nil
}
