package scraper

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DayJob is the batch of new documents harvested for one day.
type DayJob struct {
	Day    int
	Folder string
	Links  []Link
}

// Status of a single document download.
type Status int

const (
	Success Status = iota
	Failure
)

func (s Status) String() string {
	if s == Success {
		return "ok"
	}
	return "error"
}

// LinkOutcome is what happened to one link of a DayJob.
type LinkOutcome struct {
	Link   Link
	Status Status
	Reason string
}

// DayFolder returns base/Dia_<day>.
func DayFolder(base string, day int) string {
	return filepath.Join(base, "Dia_"+strconv.Itoa(day))
}

// EnsureFolder creates base/Dia_<day> if it does not exist yet.
func EnsureFolder(base string, day int) (string, error) {
	folder := DayFolder(base, day)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", folder, err)
	}
	return folder, nil
}

// Downloader visits each document of a DayJob and triggers its download.
type Downloader struct {
	page     Page
	baseDir  string
	selector string
	timings  Timings
	sleep    func(time.Duration)
	log      *Logger
}

func NewDownloader(page Page, baseDir string, selectors Selectors, timings Timings, log *Logger) *Downloader {
	return &Downloader{
		page:     page,
		baseDir:  baseDir,
		selector: selectors.DownloadButton,
		timings:  timings,
		sleep:    time.Sleep,
		log:      log,
	}
}

// NewJob builds the DayJob for day; it does not touch the filesystem.
func (d *Downloader) NewJob(day int, links []Link) DayJob {
	return DayJob{Day: day, Folder: DayFolder(d.baseDir, day), Links: links}
}

// ProcessDay downloads every link of job into its day folder. A failing link
// is recorded and the rest of the batch continues.
func (d *Downloader) ProcessDay(job DayJob) []LinkOutcome {
	if len(job.Links) == 0 {
		return nil
	}

	outcomes := make([]LinkOutcome, 0, len(job.Links))

	folder, err := d.prepare(job.Day)
	if err != nil {
		d.log.Errorf("day %d: %v", job.Day, err)
		for _, link := range job.Links {
			outcomes = append(outcomes, LinkOutcome{Link: link, Status: Failure, Reason: err.Error()})
		}
		return outcomes
	}
	d.log.Infof("downloading into %s", folder)

	for _, link := range job.Links {
		if err := d.download(link); err != nil {
			d.log.Errorf("download failed for %s: %v", link.ID, err)
			outcomes = append(outcomes, LinkOutcome{Link: link, Status: Failure, Reason: err.Error()})
			continue
		}
		d.log.Infof("download started: %s", link.ID)
		outcomes = append(outcomes, LinkOutcome{Link: link, Status: Success})
	}

	return outcomes
}

func (d *Downloader) prepare(day int) (string, error) {
	folder, err := EnsureFolder(d.baseDir, day)
	if err != nil {
		return "", err
	}
	if err := d.page.SetDownloadTarget(folder); err != nil {
		return "", fmt.Errorf("error setting download folder: %w", err)
	}
	return folder, nil
}

func (d *Downloader) download(link Link) error {
	if err := d.page.Navigate(link.ID); err != nil {
		return err
	}

	button, err := d.page.WaitClickable(d.selector, d.timings.DownloadWait)
	if err != nil {
		return fmt.Errorf("download button: %w", err)
	}

	if err := button.Activate(); err != nil {
		return fmt.Errorf("error clicking download button: %w", err)
	}

	// the browser starts the download asynchronously
	d.sleep(d.timings.AfterDownloadSettle)

	return nil
}
