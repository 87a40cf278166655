package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"second-brain-client/internal/dto"
	"second-brain-client/internal/entity"
	"second-brain-client/internal/service"
	"second-brain-client/pkg/readmodel"
)

var errUsage = errors.New("invalid arguments; run brain --help")

func subcommand(args []string, fallback string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return fallback, args
	}
	return args[0], args[1:]
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	color.Green("Wrote %s", path)
	return nil
}

func runStatus(a *app, _ []string) error {
	status, err := a.c.API.GetStatus(a.ctx)
	if err != nil {
		return fmt.Errorf("backend unreachable at %s: %w", a.c.API.BaseURL(), err)
	}
	fmt.Printf("%s %s (version %s)\n", boldCyan("Backend:"), status.Status, status.Version)

	if !a.c.Sessions.IsAuthenticated() {
		fmt.Println(faint("Not signed in."))
		return nil
	}
	stats, err := a.c.API.GetUserStats(a.ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d file(s), %d chunk(s)\n", boldCyan("Documents:"), stats.VectorStore.UniqueFiles, stats.VectorStore.TotalChunks)
	fmt.Printf("%s %d\n", boldCyan("Memories:"), stats.Memories.TotalMemories)
	return nil
}

func runLogin(a *app, args []string) error {
	fs := newFlagSet("login")
	token := fs.String("token", "", "Use an existing backend token")
	google := fs.Bool("google", false, "Sign in with Google (device flow)")
	email := fs.String("email", "", "Development login email")
	name := fs.String("name", "", "Development login display name")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var err error
	switch {
	case *token != "":
		_, err = a.c.Auth.LoginWithToken(a.ctx, *token)
	case *google:
		err = googleLogin(a)
	case *email != "":
		_, err = a.c.Auth.DevLogin(a.ctx, *email, *name)
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	return runWhoami(a, nil)
}

func googleLogin(a *app) error {
	da, err := a.c.OAuth.StartDeviceLogin(a.ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Open %s and enter the code %s\n", boldCyan(da.VerificationURI), boldGreen(da.UserCode))
	idToken, err := a.c.OAuth.AwaitIdToken(a.ctx, da)
	if err != nil {
		return err
	}
	_, err = a.c.Auth.LoginWithGoogle(a.ctx, idToken)
	return err
}

func runLogout(a *app, _ []string) error {
	if err := a.c.Auth.Logout(a.ctx); err != nil {
		return err
	}
	color.Green("Signed out.")
	return nil
}

func runWhoami(a *app, _ []string) error {
	current := a.c.Sessions.Current()
	if current == nil {
		fmt.Println(faint("Not signed in."))
		return nil
	}
	user, err := a.c.Auth.Profile(a.ctx)
	if err != nil {
		// offline: fall back to what the session already knows
		if current.User == nil {
			return err
		}
		user = &dto.UserDTO{Id: current.User.Id, Email: current.User.Email, Name: current.User.FullName}
	}
	fmt.Printf("%s %s <%s>\n", boldCyan("Signed in as"), user.Name, user.Email)
	fmt.Printf("%s %s\n", faint("user id:"), user.Id)
	if current.Claims != nil && current.Claims.ExpiresAt != nil {
		fmt.Printf("%s %s\n", faint("expires:"), current.Claims.ExpiresAt.Local().Format(timeLayout))
	}
	return nil
}

func runChat(a *app, args []string) error {
	fs := newFlagSet("chat")
	noHistory := fs.Bool("no-history", false, "Do not show recent conversation history first")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question != "" {
		return ask(a, question)
	}

	if !*noHistory {
		a.c.Chat.LoadConversationHistory(a.ctx)
		a.drainNotifications()
		for _, h := range a.c.Chat.ConversationHistory() {
			printHistoryEntry(h)
		}
	}
	fmt.Println(boldGreen("Second Brain chat"), faint("(type 'exit' to quit)"))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			return nil
		}
		if line == "" {
			continue
		}
		if err := ask(a, line); err != nil {
			return err
		}
		a.drainNotifications()
		if a.ctx.Err() != nil {
			return nil
		}
	}
}

// ask sends one question and prints the reply. Backend failures land in
// the transcript as an error message, not as a returned error.
func ask(a *app, question string) error {
	userKey := a.c.Chat.UserKey()
	before := len(a.c.Chat.Messages())
	if err := a.c.Chat.SendUserQuery(a.ctx, question); err != nil {
		return err
	}
	if a.c.Chat.UserKey() != userKey {
		// the session ended mid-request; the reply was stored for userKey
		color.Yellow("Your session ended. Run brain login to continue.")
		return nil
	}
	msgs := a.c.Chat.Messages()
	for _, m := range msgs[before:] {
		if m.Role != entity.ChatRoleUser {
			printMessage(m)
		}
	}
	return nil
}

func runTranscript(a *app, args []string) error {
	sub, _ := subcommand(args, "show")
	switch sub {
	case "show":
		msgs := a.c.Chat.Messages()
		if len(msgs) == 0 {
			fmt.Println(faint("Transcript is empty."))
		}
		for _, m := range msgs {
			printMessage(m)
		}
	case "clear":
		a.c.Chat.ClearMessages(a.ctx)
		color.Green("Transcript cleared.")
	default:
		return errUsage
	}
	return nil
}

func runHistory(a *app, args []string) error {
	sub, rest := subcommand(args, "show")
	switch sub {
	case "show":
		entries := a.c.Chat.ConversationHistory()
		if len(entries) == 0 {
			fmt.Println(faint("No recent conversations."))
		}
		for _, h := range entries {
			printHistoryEntry(h)
		}
	case "load":
		a.c.Chat.LoadConversationHistory(a.ctx)
		fmt.Printf("%d entries loaded.\n", len(a.c.Chat.ConversationHistory()))
	case "clear":
		a.c.Chat.ClearHistory(a.ctx)
		color.Green("Local history cleared.")
	case "purge":
		return a.c.Chat.ClearConversation(a.ctx)
	case "export":
		fs := newFlagSet("history export")
		out := fs.String("out", "", "Output file (defaults to the suggested name)")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		export, err := a.c.Chat.ExportConversation(a.ctx)
		if err != nil {
			return err
		}
		path := *out
		if path == "" {
			path = export.FileName
		}
		return writeFile(path, export.Data)
	default:
		return errUsage
	}
	return nil
}

func runMemory(a *app, args []string) error {
	sub, rest := subcommand(args, "list")
	mem := a.c.Memories
	now := time.Now()

	switch sub {
	case "list":
		fs := newFlagSet("memory list")
		refresh := fs.Bool("refresh", false, "Bypass the cached list")
		category := fs.String("category", readmodel.CategoryAll, "Category to show")
		timeFilter := fs.String("time", string(readmodel.TimeFilterAll), "all|upcoming|expired|completed|timed")
		search := fs.String("search", "", "Filter by text")
		showCompleted := fs.Bool("completed", false, "Include completed memories")
		sortBy := fs.String("sort", string(readmodel.SortByCreated), "created|event|category|status")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		list, err := mem.List(a.ctx, *refresh)
		if err != nil {
			return err
		}
		filter := readmodel.MemoryFilter{
			SearchText:    *search,
			Category:      *category,
			TimeFilter:    readmodel.TimeFilter(*timeFilter),
			ShowCompleted: *showCompleted,
		}
		printMemoryGroups(readmodel.MemoryView(list, filter, readmodel.MemorySort(*sortBy), now), now)
		counts := readmodel.CountByStatus(list, now)
		fmt.Println(faint(fmt.Sprintf("%d total, %d soon, %d expired, %d completed",
			len(list), counts[entity.MemoryStatusSoon], counts[entity.MemoryStatusExpired], counts[entity.MemoryStatusCompleted])))
	case "add":
		command := strings.TrimSpace(strings.Join(rest, " "))
		if command == "" {
			return errUsage
		}
		_, err := mem.Add(a.ctx, command)
		return err
	case "add-direct":
		fs := newFlagSet("memory add-direct")
		var req dto.AddMemoryDirectRequest
		fs.StringVar(&req.Category, "category", string(entity.MemoryCategoryOther), "Memory category")
		fs.StringVar(&req.Key, "key", "", "Memory key")
		fs.StringVar(&req.Value, "value", "", "Memory value")
		fs.StringVar(&req.Description, "description", "", "Optional description")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		_, err := mem.AddDirect(a.ctx, req)
		return err
	case "delete", "complete":
		fs := newFlagSet("memory " + sub)
		category := fs.String("category", "", "Restrict to one category")
		if err := fs.Parse(rest); err != nil || fs.NArg() != 1 {
			return errUsage
		}
		if sub == "delete" {
			return mem.Delete(a.ctx, fs.Arg(0), entity.MemoryCategory(*category))
		}
		return mem.Complete(a.ctx, fs.Arg(0), entity.MemoryCategory(*category))
	case "upcoming":
		fs := newFlagSet("memory upcoming")
		hours := fs.Int("hours", service.DefaultUpcomingHours, "Look-ahead window in hours")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		list, err := mem.Upcoming(a.ctx, *hours)
		if err != nil {
			return err
		}
		printMemoryGroups(readmodel.GroupMemories(readmodel.SortMemories(list, readmodel.SortByEvent, now)), now)
	case "expired":
		list, err := mem.Expired(a.ctx)
		if err != nil {
			return err
		}
		printMemoryGroups(readmodel.GroupMemories(list), now)
	case "cleanup":
		fs := newFlagSet("memory cleanup")
		days := fs.Int("days", service.DefaultCleanupDaysOld, "Remove items older than this many days")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		_, err := mem.Cleanup(a.ctx, *days)
		return err
	case "stats":
		stats, err := mem.TimeStats(a.ctx)
		if err != nil {
			return err
		}
		fmt.Printf("total %d, timed %d, upcoming %d, expired %d, completed %d\n",
			stats.Total, stats.Timed, stats.Upcoming, stats.Expired, stats.Completed)
	case "search":
		list, err := mem.Search(a.ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		printMemoryGroups(readmodel.GroupMemories(list), now)
	case "export":
		fs := newFlagSet("memory export")
		out := fs.String("out", fmt.Sprintf("second-brain-memories-%d.json", now.UnixMilli()), "Output file")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		data, err := mem.Export(a.ctx)
		if err != nil {
			return err
		}
		return writeFile(*out, data)
	default:
		return errUsage
	}
	return nil
}

func runDocs(a *app, args []string) error {
	sub, rest := subcommand(args, "files")
	docs := a.c.Documents

	switch sub {
	case "list", "files":
		fs := newFlagSet("docs " + sub)
		refresh := fs.Bool("refresh", false, "Bypass the cached list")
		search := fs.String("search", "", "Filter by file name")
		inPreview := fs.Bool("preview", false, "Also match the content preview")
		tab := fs.String("type", string(readmodel.TabAll), "all|pdf|documents|images|data")
		sortBy := fs.String("sort", string(readmodel.SortDocsByName), "name|size|date")
		desc := fs.Bool("desc", false, "Sort descending")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		list, err := docs.List(a.ctx, *refresh)
		if err != nil {
			return err
		}
		filtered := readmodel.FilterDocuments(list, readmodel.DocumentFilter{
			SearchText:   *search,
			Tab:          readmodel.FileTypeTab(*tab),
			MatchPreview: *inPreview,
		})
		sorted := readmodel.SortDocuments(filtered, readmodel.DocumentSort(*sortBy), *desc)
		if sub == "files" {
			printFiles(readmodel.SummarizeFiles(sorted))
			return nil
		}
		for _, d := range sorted {
			fmt.Printf("%s #%d/%d  %s\n", boldCyan(d.FileName), d.ChunkIndex+1, d.TotalChunks, faint(d.ContentPreview))
		}
	case "delete":
		if len(rest) != 1 {
			return errUsage
		}
		_, err := docs.Delete(a.ctx, rest[0])
		return err
	case "info":
		info, err := a.c.API.GetUploadInfo(a.ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", boldCyan("Upload to:"), info.UploadURL)
		fmt.Printf("%s %s\n", boldCyan("Max size:"), readmodel.FormatFileSize(info.MaxFileSize))
		fmt.Printf("%s %s\n", boldCyan("Formats:"), strings.Join(info.SupportedFormats, ", "))
	case "search":
		results, err := docs.Search(a.ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println(faint("No matches."))
		}
		for _, r := range results {
			fmt.Printf("%s %v  %s\n", yellow(fmt.Sprintf("%.2f", r.Score)), r.Metadata["file_name"], r.Content)
		}
	default:
		return errUsage
	}
	return nil
}

func runUpload(a *app, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	for _, path := range args {
		src, err := service.NewFileSource(path)
		if err != nil {
			return err
		}
		a.c.Uploads.Add(src)
	}

	items, err := a.c.Uploads.Upload(a.ctx, func(docs []service.UploadedDocument) {
		a.c.Documents.Invalidate()
	})
	if err != nil {
		return err
	}
	for _, item := range items {
		printUploadItem(item)
	}
	return nil
}
