package cli

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ketabyar/ketabyar/internal/config"
	"github.com/ketabyar/ketabyar/internal/database"
	booksdb "github.com/ketabyar/ketabyar/internal/database/books"
	"github.com/ketabyar/ketabyar/internal/entities"
)

type ImportBookCommand struct {
	FilePath     string
	Title        string
	Author       string
	Translator   string
	Level        string
	Language     string
	DatabasePath string
	Publish      bool
	Verbose      bool
}

func NewImportBookCommand() *ImportBookCommand {
	return &ImportBookCommand{}
}

func (cmd *ImportBookCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-book", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to the plain-text book file (required)")
	fs.StringVar(&cmd.Title, "title", "", "Book title (required)")
	fs.StringVar(&cmd.Author, "author", "", "Book author")
	fs.StringVar(&cmd.Translator, "translator", "", "Translator name, if the book is a translation")
	fs.StringVar(&cmd.Level, "level", string(entities.LevelBeginner), "Suggested difficulty: beginner, intermediate or advanced")
	fs.StringVar(&cmd.Language, "lang", "fa", "Book language code")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.BoolVar(&cmd.Publish, "publish", false, "Publish the book immediately instead of leaving it in draft")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-book [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a plain-text book and split it into pages.\n\n")
		fmt.Fprintf(os.Stderr, "Pages are separated by form-feed characters (\\f) when present,\n")
		fmt.Fprintf(os.Stderr, "otherwise by runs of two or more blank lines.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import-book -file ./buf-e-kur.txt -title \"بوف کور\" -author \"صادق هدایت\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import-book -file ./book.txt -title \"شازده کوچولو\" -translator \"محمد قاضی\" -level intermediate -publish\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		fs.Usage()
		return fmt.Errorf("file is required")
	}
	if cmd.Title == "" {
		fs.Usage()
		return fmt.Errorf("title is required")
	}
	if !entities.Level(cmd.Level).IsValid() {
		return fmt.Errorf("unknown level: %s", cmd.Level)
	}

	return nil
}

func (cmd *ImportBookCommand) Run() error {
	absPath, err := filepath.Abs(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to read book file: %w", err)
	}

	pages := splitIntoPages(string(raw))
	if len(pages) == 0 {
		return fmt.Errorf("no page content found in %s", absPath)
	}

	if cmd.Verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.Printf("Split %s into %d pages", absPath, len(pages))
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	repo := booksdb.NewRepository(db.DB)

	book := &entities.Book{
		Title:      cmd.Title,
		Author:     cmd.Author,
		Translator: cmd.Translator,
		Language:   cmd.Language,
		Level:      entities.Level(cmd.Level),
		Published:  cmd.Publish,
	}
	if err := repo.CreateBook(book); err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}

	for i, content := range pages {
		page := &entities.Page{
			BookID:     book.ID,
			PageNumber: i + 1,
			Content:    content,
		}
		if err := repo.SavePage(page); err != nil {
			return fmt.Errorf("failed to save page %d: %w", i+1, err)
		}
		if cmd.Verbose {
			log.Printf("Saved page %d (%d bytes)", i+1, len(content))
		}
	}

	total, err := repo.RecountTotalPages(book.ID)
	if err != nil {
		return fmt.Errorf("failed to recount pages: %w", err)
	}

	state := "draft"
	if cmd.Publish {
		state = "published"
	}
	fmt.Printf("Imported \"%s\" (book %d, %s) with %d pages\n", book.Title, book.ID, state, total)

	return nil
}

// splitIntoPages splits raw book text into page contents. Form feeds take
// precedence as page breaks; otherwise two or more consecutive blank lines
// separate pages. Empty pages are dropped so page numbers stay contiguous.
func splitIntoPages(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var chunks []string
	if strings.Contains(text, "\f") {
		chunks = strings.Split(text, "\f")
	} else {
		chunks = splitOnBlankRuns(text)
	}

	pages := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			pages = append(pages, chunk)
		}
	}
	return pages
}

func splitOnBlankRuns(text string) []string {
	lines := strings.Split(text, "\n")

	var chunks []string
	var current []string
	blanks := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = nil
		}
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blanks++
			if blanks >= 2 {
				flush()
				continue
			}
			current = append(current, line)
			continue
		}
		blanks = 0
		current = append(current, line)
	}
	flush()

	return chunks
}
