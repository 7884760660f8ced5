package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dath-251-thuanle/secureshare/flow"
)

// terminalNotifier prints flow notifications to the terminal.
type terminalNotifier struct{}

var _ flow.Notifier = terminalNotifier{}

func (terminalNotifier) Success(msg string) {
	fmt.Fprintln(os.Stdout, "✓ "+msg)
}

func (terminalNotifier) Error(msg string) {
	fmt.Fprintln(os.Stderr, "✗ "+msg)
}

func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// routeRecorder captures the controller's screen transitions so a command
// can act on where the flow wanted to go.
type routeRecorder struct {
	routes []flow.Route
}

var _ flow.Navigator = (*routeRecorder)(nil)

func (r *routeRecorder) Navigate(route flow.Route) {
	r.routes = append(r.routes, route)
}

// Last returns the most recent route, or nil when no navigation happened.
func (r *routeRecorder) Last() *flow.Route {
	if len(r.routes) == 0 {
		return nil
	}
	return &r.routes[len(r.routes)-1]
}

func prompt(label string) (string, error) {
	fmt.Fprint(os.Stdout, label+": ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a line without echoing when stdin is a terminal.
func promptPassword(label string) (string, error) {
	fmt.Fprint(os.Stdout, label+": ")
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stdout)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
