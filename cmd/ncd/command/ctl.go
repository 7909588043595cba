package command

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/netcontrold/ncd/internal/ctlsocket"
)

func client(cliCtx *cli.Context) *ctlsocket.Client {
	path := cliCtx.GlobalString("socket")
	return ctlsocket.NewClient(path)
}

func cmdTraceOn(cliCtx *cli.Context) error  { return client(cliCtx).TraceOn() }
func cmdTraceOff(cliCtx *cli.Context) error { return client(cliCtx).TraceOff() }

func cmdRebalOn(cliCtx *cli.Context) error       { return client(cliCtx).RebalOn() }
func cmdRebalOff(cliCtx *cli.Context) error      { return client(cliCtx).RebalOff() }
func cmdRebalQuickOn(cliCtx *cli.Context) error  { return client(cliCtx).RebalQuickOn() }
func cmdRebalQuickOff(cliCtx *cli.Context) error { return client(cliCtx).RebalQuickOff() }

func cmdVerboseOn(cliCtx *cli.Context) error  { return client(cliCtx).VerboseOn() }
func cmdVerboseOff(cliCtx *cli.Context) error { return client(cliCtx).VerboseOff() }

func cmdVersion(cliCtx *cli.Context) error {
	out, err := client(cliCtx).Version()
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func cmdConfig(cliCtx *cli.Context) error {
	out, err := client(cliCtx).Config()
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func cmdRebalCount(cliCtx *cli.Context) error {
	out, err := client(cliCtx).RebalCount()
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// cmdStatus re-tabulates the daemon's raw "Interface | Event | Time
// stamp" text into an aligned table, replacing the absolute timestamp
// column with a humanized age the way an operator actually reads it.
func cmdStatus(cliCtx *cli.Context) error {
	out, err := client(cliCtx).Status()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Interface", "Event", "Age"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	scanner := bufio.NewScanner(strings.NewReader(out))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo <= 2 {
			continue // header and separator line from the daemon's own rendering
		}
		fields := strings.Split(scanner.Text(), "|")
		if len(fields) != 3 {
			continue
		}
		iface := strings.TrimSpace(fields[0])
		event := strings.TrimSpace(fields[1])
		stamp := strings.TrimSpace(fields[2])

		age := stamp
		if ts, err := time.ParseInLocation("2006-01-02 15:04:05", stamp, time.Local); err == nil {
			age = humanize.Time(ts)
		}
		table.Append([]string{iface, event, age})
	}

	table.Render()
	return nil
}
