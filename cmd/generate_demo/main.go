// Command generate_demo creates a demo database with sample Persian books,
// tagged vocabulary and a demo reader account.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"flag"
	"log"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/ketabyar/ketabyar/internal/database"
	booksdb "github.com/ketabyar/ketabyar/internal/database/books"
	vocabdb "github.com/ketabyar/ketabyar/internal/database/vocabulary"
	"github.com/ketabyar/ketabyar/internal/entities"
)

const defaultDemoDatabasePath = "./demo/demo.db"

type demoBook struct {
	book  entities.Book
	pages []string
}

type demoWord struct {
	surfaceForm   string
	pronunciation string
	meanings      map[entities.Level]string
}

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	books := booksdb.NewRepository(db.DB)
	vocab := vocabdb.NewRepository(db.DB)

	words := seedVocabulary(vocab)
	seedBooks(books, vocab, words)

	log.Println("Demo database generated successfully!")
}

func seedVocabulary(vocab *vocabdb.Repository) map[string]*entities.Word {
	definitions := []demoWord{
		{
			surfaceForm:   "اضطراب",
			pronunciation: "ezterāb",
			meanings: map[entities.Level]string{
				entities.LevelBeginner:     "نگرانی",
				entities.LevelIntermediate: "دلشوره و ناآرامی درونی",
				entities.LevelAdvanced:     "حالت تشویش روانی همراه با بی‌قراری",
			},
		},
		{
			surfaceForm:   "رنجور",
			pronunciation: "ranjur",
			meanings: map[entities.Level]string{
				entities.LevelBeginner:     "بیمار",
				entities.LevelIntermediate: "آزرده و دردمند",
			},
		},
		{
			surfaceForm:   "مغاک",
			pronunciation: "maghāk",
			meanings: map[entities.Level]string{
				entities.LevelBeginner: "گودال",
				entities.LevelAdvanced: "ورطه، ژرفای تاریک",
			},
		},
		{
			surfaceForm:   "سپهر",
			pronunciation: "sepehr",
			meanings: map[entities.Level]string{
				entities.LevelBeginner:     "آسمان",
				entities.LevelIntermediate: "آسمان، گردون",
			},
		},
	}

	words := make(map[string]*entities.Word)
	for _, def := range definitions {
		word := &entities.Word{
			SurfaceForm:   def.surfaceForm,
			Pronunciation: def.pronunciation,
		}
		if err := vocab.AddWord(word); err != nil {
			log.Printf("Failed to add word %s: %v", def.surfaceForm, err)
			continue
		}
		for level, meaning := range def.meanings {
			explanation := &entities.WordExplanation{
				WordID:  word.ID,
				Level:   level,
				Meaning: meaning,
			}
			if err := vocab.SaveExplanation(explanation); err != nil {
				log.Printf("Failed to save %s explanation for %s: %v", level, def.surfaceForm, err)
			}
		}
		words[def.surfaceForm] = word
	}

	log.Printf("Seeded %d vocabulary words", len(words))
	return words
}

func seedBooks(books *booksdb.Repository, vocab *vocabdb.Repository, words map[string]*entities.Word) {
	for _, demo := range getDemoBooks() {
		book := demo.book
		if err := books.CreateBook(&book); err != nil {
			log.Printf("Failed to create book %s: %v", book.Title, err)
			continue
		}

		for i, content := range demo.pages {
			page := &entities.Page{
				BookID:     book.ID,
				PageNumber: i + 1,
				Content:    content,
			}
			if err := books.SavePage(page); err != nil {
				log.Printf("Failed to save page %d of %s: %v", i+1, book.Title, err)
				continue
			}
			tagKnownWords(vocab, page, words)
		}

		total, err := books.RecountTotalPages(book.ID)
		if err != nil {
			log.Printf("Failed to recount pages for %s: %v", book.Title, err)
			continue
		}
		log.Printf("Saved: %s by %s (%d pages)", book.Title, book.Author, total)
	}
}

// tagKnownWords scans page content for seeded vocabulary and records a
// position for the first occurrence of each word, using the hardest
// explanation available so level filtering has something to select from.
func tagKnownWords(vocab *vocabdb.Repository, page *entities.Page, words map[string]*entities.Word) {
	for surfaceForm, word := range words {
		start, end, ok := utf16Span(page.Content, surfaceForm)
		if !ok {
			continue
		}

		full, err := vocab.GetWordByID(word.ID)
		if err != nil || len(full.Explanations) == 0 {
			continue
		}
		explanation := full.Explanations[0]
		for _, e := range full.Explanations[1:] {
			if e.Level.Rank() > explanation.Level.Rank() {
				explanation = e
			}
		}

		position := &entities.WordPosition{
			PageID:        page.ID,
			WordID:        word.ID,
			ExplanationID: explanation.ID,
			StartOffset:   start,
			EndOffset:     end,
		}
		if err := vocab.AddPosition(position); err != nil {
			log.Printf("Failed to tag %s on page %d: %v", surfaceForm, page.PageNumber, err)
		}
	}
}

// utf16Span locates the first occurrence of needle in content and returns
// its half-open span in UTF-16 code units.
func utf16Span(content, needle string) (start, end int, ok bool) {
	byteIdx := strings.Index(content, needle)
	if byteIdx < 0 {
		return 0, 0, false
	}
	start = len(utf16.Encode([]rune(content[:byteIdx])))
	end = start + len(utf16.Encode([]rune(needle)))
	return start, end, true
}

func getDemoBooks() []demoBook {
	return []demoBook{
		{
			book: entities.Book{
				Title:     "بوف کور",
				Author:    "صادق هدایت",
				Language:  "fa",
				Level:     entities.LevelAdvanced,
				Published: true,
				Description: "رمان کوتاهی از صادق هدایت، از مهم‌ترین " +
					"آثار ادبیات معاصر فارسی.",
			},
			pages: []string{
				"در زندگی زخم‌هایی هست که مثل خوره روح را آهسته در انزوا می‌خورد و می‌تراشد. این دردها را نمی‌شود به کسی اظهار کرد.",
				"من سعی خواهم کرد آنچه را که از این اضطراب در خاطرم مانده است بنویسم، شاید بتوانم راجع به آن یک قضاوت کلی بکنم.",
				"تنها چیزی که از من دلجویی می‌کرد امید نیستی پس از مرگ بود. روح رنجور من در جستجوی آرامش، به هر مغاک تاریکی سرک می‌کشید.",
			},
		},
		{
			book: entities.Book{
				Title:     "گلستان",
				Author:    "سعدی",
				Language:  "fa",
				Level:     entities.LevelIntermediate,
				Published: true,
				Description: "اثر منثور سعدی شیرازی در هشت باب، نوشته‌شده " +
					"به سال ۶۵۶ هجری قمری.",
			},
			pages: []string{
				"منت خدای را عز و جل که طاعتش موجب قربت است و به شکر اندرش مزید نعمت.",
				"بنی‌آدم اعضای یکدیگرند، که در آفرینش ز یک گوهرند. چو عضوی به درد آورد روزگار، دگر عضوها را نماند قرار.",
				"هر نفسی که فرو می‌رود ممد حیات است و چون بر می‌آید مفرح ذات. زیر این سپهر گردان، هیچ دولتی پایدار نماند.",
			},
		},
		{
			book: entities.Book{
				Title:     "ماهی سیاه کوچولو",
				Author:    "صمد بهرنگی",
				Language:  "fa",
				Level:     entities.LevelBeginner,
				Published: true,
				Description: "داستان کودکانه‌ای درباره ماهی کوچکی که " +
					"می‌خواهد انتهای جویبار را ببیند.",
			},
			pages: []string{
				"شب چله بود. ته دریا ماهی پیر دوازده هزار تا از بچه‌ها و نوه‌هایش را دور خودش جمع کرده بود.",
				"ماهی سیاه کوچولو گفت: می‌خواهم بروم ببینم آخر جویبار کجاست.",
			},
		},
		{
			book: entities.Book{
				Title:       "پیش‌نویس منتشر نشده",
				Author:      "ویراستار",
				Language:    "fa",
				Level:       entities.LevelBeginner,
				Published:   false,
				Description: "نمونه کتاب در حالت پیش‌نویس برای آزمایش جریان ویراستاری.",
			},
			pages: []string{
				"این صفحه هنوز در دست ویرایش است.",
			},
		},
	}
}
