package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/gnemet/SlideText/internal/extractor"
)

type Presentation struct {
	ID         int       `json:"id"`
	Filename   string    `json:"filename"`
	SourcePath string    `json:"source_path"`
	Checksum   string    `json:"checksum"`
	SlideCount int       `json:"slide_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type SlideRecord struct {
	ID             int      `json:"id"`
	PresentationID int      `json:"presentation_id"`
	SlideNumber    int      `json:"slide_number"`
	Title          string   `json:"title"`
	TextContent    []string `json:"text_content"`
	FullText       string   `json:"full_text"`
	AISummary      string   `json:"ai_summary"`
}

// NewSlideRecord converts an extracted slide; FullText is captured at save time.
func NewSlideRecord(presentationID int, c extractor.SlideContent) *SlideRecord {
	text := c.TextContent
	if text == nil {
		text = []string{}
	}
	return &SlideRecord{
		PresentationID: presentationID,
		SlideNumber:    c.SlideNumber,
		Title:          c.Title,
		TextContent:    text,
		FullText:       c.FullText(),
	}
}

// Content returns the extractor view of a stored slide.
func (s *SlideRecord) Content() extractor.SlideContent {
	return extractor.SlideContent{
		SlideNumber: s.SlideNumber,
		Title:       s.Title,
		TextContent: s.TextContent,
	}
}

// SaveExtraction stores a presentation and all of its slides in one transaction.
func SaveExtraction(db *sql.DB, p *Presentation, slides []extractor.SlideContent) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	p.SlideCount = len(slides)
	err = tx.QueryRow(`
		INSERT INTO presentations (filename, source_path, checksum, slide_count)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, p.Filename, p.SourcePath, p.Checksum, p.SlideCount).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert presentation: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO slide_contents (presentation_id, slide_number, title, text_content, full_text)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, c := range slides {
		rec := NewSlideRecord(p.ID, c)
		if _, err := stmt.Exec(rec.PresentationID, rec.SlideNumber, rec.Title, pq.Array(rec.TextContent), rec.FullText); err != nil {
			return 0, fmt.Errorf("failed to insert slide %d: %w", c.SlideNumber, err)
		}
	}

	return p.ID, tx.Commit()
}

const presentationColumns = "id, filename, source_path, checksum, slide_count, created_at"

func scanPresentation(row interface{ Scan(...interface{}) error }) (*Presentation, error) {
	var p Presentation
	if err := row.Scan(&p.ID, &p.Filename, &p.SourcePath, &p.Checksum, &p.SlideCount, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPresentationByChecksum returns sql.ErrNoRows when nothing matches.
func GetPresentationByChecksum(db *sql.DB, checksum string) (*Presentation, error) {
	return scanPresentation(db.QueryRow("SELECT "+presentationColumns+" FROM presentations WHERE checksum = $1", checksum))
}

func GetPresentation(db *sql.DB, id int) (*Presentation, error) {
	return scanPresentation(db.QueryRow("SELECT "+presentationColumns+" FROM presentations WHERE id = $1", id))
}

func GetAllPresentations(db *sql.DB) ([]Presentation, error) {
	rows, err := db.Query("SELECT " + presentationColumns + " FROM presentations ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Presentation
	for rows.Next() {
		p, err := scanPresentation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func GetSlidesByPresentation(db *sql.DB, presentationID int) ([]SlideRecord, error) {
	rows, err := db.Query(`
		SELECT id, presentation_id, slide_number, title, text_content, full_text, ai_summary
		FROM slide_contents WHERE presentation_id = $1 ORDER BY slide_number`, presentationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slides []SlideRecord
	for rows.Next() {
		var s SlideRecord
		if err := rows.Scan(&s.ID, &s.PresentationID, &s.SlideNumber, &s.Title, pq.Array(&s.TextContent), &s.FullText, &s.AISummary); err != nil {
			return nil, err
		}
		slides = append(slides, s)
	}
	return slides, rows.Err()
}

func UpdateSlideSummary(db *sql.DB, presentationID, slideNumber int, summary string) error {
	_, err := db.Exec("UPDATE slide_contents SET ai_summary = $1 WHERE presentation_id = $2 AND slide_number = $3",
		summary, presentationID, slideNumber)
	return err
}

func UpdatePresentationPath(db *sql.DB, id int, path string) error {
	_, err := db.Exec("UPDATE presentations SET source_path = $1 WHERE id = $2", path, id)
	return err
}

func ClearDatabase(db *sql.DB) error {
	_, err := db.Exec("DELETE FROM presentations")
	return err
}

// ErrNotFound is returned by Store lookups that match no row.
var ErrNotFound = errors.New("not found")

// Store binds the repository functions to one connection.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// FindByChecksum returns the stored presentation with checksum, or ErrNotFound.
func (s *Store) FindByChecksum(checksum string) (*Presentation, error) {
	p, err := GetPresentationByChecksum(s.DB, checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *Store) SaveExtraction(p *Presentation, slides []extractor.SlideContent) (int, error) {
	return SaveExtraction(s.DB, p, slides)
}

func (s *Store) UpdateSlideSummary(presentationID, slideNumber int, summary string) error {
	return UpdateSlideSummary(s.DB, presentationID, slideNumber, summary)
}

func (s *Store) UpdatePresentationPath(id int, path string) error {
	return UpdatePresentationPath(s.DB, id, path)
}

func (s *Store) ListPresentations() ([]Presentation, error) {
	return GetAllPresentations(s.DB)
}

// Slides returns the stored slides of a presentation, or ErrNotFound.
func (s *Store) Slides(presentationID int) ([]SlideRecord, error) {
	if _, err := GetPresentation(s.DB, presentationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return GetSlidesByPresentation(s.DB, presentationID)
}
