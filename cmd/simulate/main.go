// simulate fires concurrent booking requests at the same slot to demonstrate
// the ledger's conflict behavior: exactly one request wins, the rest receive
// slot_already_booked and would re-fetch availability.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

type bookRequest struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	baseURL := getenv("API_BASE_URL", "http://127.0.0.1:8080")
	clinicID := os.Getenv("CLINIC_ID")
	if clinicID == "" {
		log.Fatal("CLINIC_ID is required")
	}
	workers := 20
	if v := os.Getenv("WORKERS"); v != "" {
		fmt.Sscanf(v, "%d", &workers)
	}

	gofakeit.Seed(time.Now().UnixNano())

	// A weekday far enough out to clear any advance-notice window.
	date := nextWeekday(time.Now().AddDate(0, 0, 3))
	slot := "11:00 AM - 11:30 AM"

	log.Printf("racing %d bookings for clinic=%s date=%s slot=%q", workers, clinicID, date, slot)

	var (
		created  int64
		conflict int64
		other    int64
		wg       sync.WaitGroup
	)

	client := &http.Client{Timeout: 10 * time.Second}
	url := fmt.Sprintf("%s/clinics/%s/appointments", baseURL, clinicID)

	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			body, _ := json.Marshal(bookRequest{
				Date:  date,
				Time:  slot,
				Name:  gofakeit.Name(),
				Phone: fmt.Sprintf("%d%09d", gofakeit.Number(6, 9), gofakeit.Number(0, 999999999)),
				Email: gofakeit.Email(),
			})

			<-start

			resp, err := client.Post(url, "application/json", bytes.NewReader(body))
			if err != nil {
				atomic.AddInt64(&other, 1)
				log.Printf("request error: %v", err)
				return
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			switch resp.StatusCode {
			case http.StatusCreated:
				atomic.AddInt64(&created, 1)
			case http.StatusConflict:
				atomic.AddInt64(&conflict, 1)
			default:
				atomic.AddInt64(&other, 1)
				log.Printf("unexpected status %d", resp.StatusCode)
			}
		}()
	}

	close(start)
	wg.Wait()

	fmt.Printf("\nresults: created=%d conflict=%d other=%d\n", created, conflict, other)
	if created == 1 && conflict == int64(workers-1) {
		fmt.Println("PASS: exactly one booking won the slot")
	} else {
		fmt.Println("FAIL: expected exactly one created booking")
		os.Exit(1)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// nextWeekday walks forward to a Monday-Friday date.
func nextWeekday(t time.Time) string {
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	return t.Format("2006-01-02")
}
