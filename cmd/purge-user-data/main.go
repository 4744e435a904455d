// Command purge-user-data deletes every account and everything users created.
// The question and quiz catalog is left alone.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/SAP-F-2025/practice-service/internal/batch"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
)

func main() {
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	rt, err := batch.NewRuntime()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	ctx := context.Background()
	maintenance := rt.Repository().Maintenance()

	counts, err := maintenance.CountUserData(ctx, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		rt.Close()
		os.Exit(1)
	}
	fmt.Println("Rows to delete:")
	printCounts(os.Stdout, counts)

	if !*yes && !confirm(os.Stdin, os.Stdout) {
		fmt.Println("Aborted")
		return
	}

	deleted, err := maintenance.PurgeUserData(ctx, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "purge failed, nothing was deleted: %v\n", err)
		rt.Close()
		os.Exit(1)
	}
	fmt.Println("Deleted:")
	printCounts(os.Stdout, deleted)
}

func printCounts(w io.Writer, c *repositories.UserDataCounts) {
	fmt.Fprintf(w, "  answers:           %d\n", c.Answers)
	fmt.Fprintf(w, "  session questions: %d\n", c.SessionQuestions)
	fmt.Fprintf(w, "  sessions:          %d\n", c.Sessions)
	fmt.Fprintf(w, "  bookmarks:         %d\n", c.Bookmarks)
	fmt.Fprintf(w, "  leaderboard:       %d\n", c.Leaderboard)
	fmt.Fprintf(w, "  profiles:          %d\n", c.Profiles)
	fmt.Fprintf(w, "  users:             %d\n", c.Users)
}

// confirm asks for a literal "yes"
func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, `Type "yes" to delete all user data: `)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimSpace(line) == "yes"
}
