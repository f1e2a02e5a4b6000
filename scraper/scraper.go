package scraper

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// StopReason says why the monthly loop ended.
type StopReason int

const (
	// StopCompleted means all 31 day slots were visited.
	StopCompleted StopReason = iota
	// StopFutureDate means the next day has not happened yet.
	StopFutureDate
	// StopMonthExhausted means the month has no more days.
	StopMonthExhausted
)

func (r StopReason) String() string {
	switch r {
	case StopCompleted:
		return "completed"
	case StopFutureDate:
		return "future date"
	case StopMonthExhausted:
		return "month exhausted"
	}
	return fmt.Sprintf("StopReason(%d)", int(r))
}

// RunState is everything the scraper remembers during one run.
type RunState struct {
	Today   int
	Cursor  int
	History *History
	BaseDir string
}

// DaySummary reports one visited day.
type DaySummary struct {
	Day        int
	Links      []DocumentID
	Downloaded int
	Failed     int
	Err        string
}

type Summary struct {
	RunID      string
	Stop       StopReason
	Today      int
	Cursor     int
	Days       []DaySummary
	Queued     int
	Downloaded int
	Failed     int
	Elapsed    time.Duration
}

type Scraper struct {
	Page   Page
	Domain string

	config     ScraperConfig
	state      RunState
	keywords   Keywords
	calendar   *Calendar
	downloader *Downloader
	manifest   *Manifest
	log        *Logger
	runID      string

	now   func() time.Time
	sleep func(time.Duration)
}

// NewScraper validates config, opens the log file and launches the browser
// selected by config.Driver.
func NewScraper(config ScraperConfig) (*Scraper, error) {
	if config.Domain == "" {
		return nil, errors.New("domain is required")
	}

	if config.DownloadDir == "" {
		return nil, errors.New("download dir is required")
	}

	if err := config.ResolvePaths(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()

	var logger *Logger
	if config.LogFile != "" {
		var err error
		if logger, err = NewFileLogger(config.LogFile, runID); err != nil {
			return nil, err
		}
	} else {
		logger = NewLogger(os.Stdout, runID)
	}

	manifest, err := OpenManifest(config.DownloadDir)
	if err != nil {
		logger.Close()
		return nil, err
	}

	var page Page
	switch config.Driver {
	case DriverChromedp:
		page, err = NewChromedpPage(config, logger)
	default:
		page, err = NewPlaywrightPage(config, logger)
	}
	if err != nil {
		manifest.Close()
		logger.Close()
		return nil, err
	}

	s, err := New(config, page, logger)
	if err != nil {
		page.Close()
		manifest.Close()
		logger.Close()
		return nil, err
	}
	s.runID = runID
	s.manifest = manifest

	return s, nil
}

// New builds a scraper around an already open page.
func New(config ScraperConfig, page Page, log *Logger) (*Scraper, error) {
	if page == nil {
		return nil, errors.New("page is required")
	}
	if log == nil {
		log = Discard()
	}

	s := &Scraper{
		Page:       page,
		Domain:     config.Domain,
		config:     config,
		state:      RunState{History: NewHistory(), BaseDir: config.DownloadDir},
		keywords:   NewKeywords(config.MatchMode, config.Keywords...),
		calendar:   NewCalendar(page, config.Selectors, config.Timings, log),
		downloader: NewDownloader(page, config.DownloadDir, config.Selectors, config.Timings, log),
		log:        log,
		now:        time.Now,
	}
	s.setSleep(time.Sleep)

	return s, nil
}

func (s *Scraper) setSleep(sleep func(time.Duration)) {
	s.sleep = sleep
	s.calendar.sleep = sleep
	s.downloader.sleep = sleep
}

// State returns the run state; History is shared, not copied.
func (s *Scraper) State() RunState {
	return s.state
}

// Run walks the calendar from day 1 until the month ends or the next day is
// in the future. Per-day failures are logged and skipped; an error is
// returned only when the section page cannot be reached at all.
func (s *Scraper) Run() (*Summary, error) {
	start := s.now()
	s.state.Today = start.Day()
	s.state.Cursor = 0

	summary := &Summary{RunID: s.runID, Today: s.state.Today}
	defer func() {
		summary.Cursor = s.state.Cursor
		summary.Elapsed = s.now().Sub(start)
	}()

	s.log.Infof("starting scraper (today is day %d)", s.state.Today)

	if err := s.resetToSection(); err != nil {
		return summary, err
	}

	summary.Stop = StopCompleted
	for day := 1; day <= 31; day++ {
		previous, err := s.Page.Find(s.config.Selectors.Results)
		if err != nil {
			previous = nil
		}

		if day > s.state.Today {
			s.log.Infof("stopping: day %d has not happened yet (today is %d)", day, s.state.Today)
			summary.Stop = StopFutureDate
			break
		}

		exists, err := s.calendar.HasDay(day)
		if err != nil {
			s.state.Cursor = day
			s.log.Errorf("error on day %d: %v", day, err)
			summary.Days = append(summary.Days, DaySummary{Day: day, Err: err.Error()})
			if err := s.resetToSection(); err != nil {
				return summary, err
			}
			continue
		}
		if !exists {
			s.log.Infof("day %d does not exist this month, monthly run finished", day)
			summary.Stop = StopMonthExhausted
			break
		}

		s.state.Cursor = day
		s.log.Infof("--- processing day %d ---", day)

		ds, outcome, err := s.processDay(day, previous)
		if err != nil {
			s.log.Errorf("error on day %d: %v", day, err)
			ds.Err = err.Error()
			summary.Days = append(summary.Days, ds)
			if err := s.resetToSection(); err != nil {
				return summary, err
			}
			continue
		}

		if outcome == NoSuchDayInMonth {
			s.log.Infof("day %d disappeared from the calendar, monthly run finished", day)
			summary.Stop = StopMonthExhausted
			break
		}

		summary.Days = append(summary.Days, ds)
		summary.Queued += len(ds.Links)
		summary.Downloaded += ds.Downloaded
		summary.Failed += ds.Failed

		if err := s.resetToSection(); err != nil {
			return summary, err
		}
		s.sleep(s.config.Timings.AfterBatchSettle)
	}

	return summary, nil
}

func (s *Scraper) processDay(day int, previous Element) (DaySummary, DayOutcome, error) {
	ds := DaySummary{Day: day}

	outcome, err := s.calendar.GotoDay(day, previous)
	if err != nil || outcome != Advanced {
		return ds, outcome, err
	}

	items, err := s.Page.FindAll(s.config.Selectors.Items)
	if err != nil {
		return ds, outcome, fmt.Errorf("error getting items: %w", err)
	}

	links := Harvest(items, s.keywords, s.config.Selectors.ItemLink, s.state.History, s.log)
	s.log.Infof("day %d: %d new links", day, len(links))
	if len(links) == 0 {
		return ds, outcome, nil
	}

	job := s.downloader.NewJob(day, links)
	for _, link := range job.Links {
		ds.Links = append(ds.Links, link.ID)
	}

	outcomes := s.downloader.ProcessDay(job)
	for _, o := range outcomes {
		if o.Status == Success {
			ds.Downloaded++
		} else {
			ds.Failed++
		}
	}

	if s.manifest != nil {
		if err := s.manifest.Record(day, outcomes); err != nil {
			s.log.Warnf("could not write manifest: %v", err)
		}
	}

	return ds, outcome, nil
}

func (s *Scraper) resetToSection() error {
	if err := s.Page.Navigate(s.Domain); err != nil {
		return fmt.Errorf("error opening section %s: %w", s.Domain, err)
	}
	return nil
}

func (s *Scraper) Close() error {
	err := s.Page.Close()
	if s.manifest != nil {
		if merr := s.manifest.Close(); err == nil {
			err = merr
		}
	}
	if lerr := s.log.Close(); err == nil {
		err = lerr
	}
	return err
}
