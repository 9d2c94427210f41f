package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/admingrid/internal/core"
)

var demoNamespace = uuid.MustParse("6f1c2a4e-8d3b-4c6a-9e2f-1a7b5c3d9e01")

var (
	demoFirst  = []string{"Ada", "Grace", "Linus", "Margaret", "Alan", "Barbara", "Ken", "Radia", "Dennis", "Frances", "Edsger", "Hedy"}
	demoLast   = []string{"Lovelace", "Hopper", "Torvalds", "Hamilton", "Turing", "Liskov", "Thompson", "Perlman", "Ritchie", "Allen", "Dijkstra", "Lamarr"}
	demoEvents = []string{"Spring Gala", "Members Mixer", "Annual Meeting", "Charity Run", "Summer Picnic"}
	demoVenues = []string{"Main Hall", "Riverside Park", "Club House", "Civic Center"}
)

// DemoSource returns a MemorySource seeded with sample data for every
// built-in grid. Dates are relative to now so the recency sort modes have
// something to show.
func DemoSource(now time.Time) *MemorySource {
	m := NewMemorySource()
	m.Set("applicants", demoApplicants(now, 37))
	m.Set("events", demoEventRecords(now))
	m.Set("registrations", demoRegistrations(now, 64))
	m.Set("tickets", demoTickets(now))
	m.Set("promo_codes", demoPromoCodes(now))
	return m
}

func demoName(i int) string {
	return demoFirst[i%len(demoFirst)] + " " + demoLast[(i*7)%len(demoLast)]
}

func demoApplicants(now time.Time, n int) []core.Record {
	statuses := []string{"pending", "approved", "rejected", "waitlisted", "pending", "N/A"}
	types := []string{"Individual", "Family", "Student", "Lifetime"}
	fees := []float64{120, 180, 45, 950}

	out := make([]core.Record, 0, n)
	for i := 0; i < n; i++ {
		name := demoName(i)
		rec := core.Record{
			"id":              i + 1,
			"full_name":       name,
			"email":           strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.org",
			"phone":           fmt.Sprintf("+1 555 01%02d", i%100),
			"membership_type": types[i%len(types)],
			"status":          statuses[i%len(statuses)],
			"application_fee": fees[i%len(fees)],
			"created_at":      now.Add(-time.Duration(i*19) * time.Hour).Format(time.RFC3339),
		}
		if i%3 == 0 {
			rec["photo_url"] = fmt.Sprintf("https://picsum.photos/seed/member%d/64", i)
		}
		out = append(out, rec)
	}
	return out
}

func demoEventRecords(now time.Time) []core.Record {
	statuses := []string{"published", "draft", "published", "completed", "cancelled"}
	out := make([]core.Record, 0, len(demoEvents))
	for i, title := range demoEvents {
		out = append(out, core.Record{
			"id":         uuid.NewSHA1(demoNamespace, []byte(title)),
			"title":      title,
			"venue":      demoVenues[i%len(demoVenues)],
			"event_date": now.AddDate(0, 0, 14*i-20).Format("2006-01-02"),
			"capacity":   150 + 50*i,
			"status":     statuses[i],
			"banner_url": fmt.Sprintf("https://picsum.photos/seed/event%d/320/120", i),
		})
	}
	return out
}

func demoRegistrations(now time.Time, n int) []core.Record {
	statuses := []string{"paid", "unpaid", "paid", "partially paid", "refunded", "paid"}
	out := make([]core.Record, 0, n)
	for i := 0; i < n; i++ {
		event := demoEvents[i%len(demoEvents)]
		out = append(out, core.Record{
			"id":             uuid.NewSHA1(demoNamespace, []byte(fmt.Sprintf("registration-%d", i))),
			"attendee_name":  demoName(i + 3),
			"event_title":    event,
			"event_code":     strings.ToUpper(strings.ReplaceAll(event, " ", "")[:4]),
			"payment_status": statuses[i%len(statuses)],
			"total_amount":   fmt.Sprintf("$%d.%02d", 25+(i*13)%200, (i*7)%100),
			"order_date":     now.Add(-time.Duration(i*11) * time.Hour).Format("02/01/2006, 3:04 PM"),
			"reference":      fmt.Sprintf("%04d", 1000+i),
		})
	}
	return out
}

func demoTickets(now time.Time) []core.Record {
	kinds := []string{"General Admission", "VIP", "Early Bird", "Student"}
	stock := []string{"in stock", "low stock", "out of stock", "discontinued", "in stock"}
	var out []core.Record
	for i, event := range demoEvents {
		for j, kind := range kinds {
			n := i*len(kinds) + j
			available := (n * 17) % 120
			out = append(out, core.Record{
				"id":                 n + 1,
				"name":               kind,
				"event_title":        event,
				"price":              float64(15+10*j) + 0.5*float64(i),
				"quantity_available": available,
				"stock_status":       stock[n%len(stock)],
				"sales_end_date":     now.AddDate(0, 0, 7*i-j).Format("2006-01-02"),
			})
		}
	}
	return out
}

func demoPromoCodes(now time.Time) []core.Record {
	codes := []string{"spring24", "member10", "gala-vip", "student5", "earlybird", "friends"}
	states := []string{"active", "inactive", "active", "suspended", "active", ""}
	out := make([]core.Record, 0, len(codes))
	for i, code := range codes {
		out = append(out, core.Record{
			"id":         i + 1,
			"code":       code,
			"discount":   5 * (i + 1),
			"uses":       i * 4,
			"max_uses":   25,
			"state":      states[i],
			"expires_at": now.AddDate(0, i-2, 0),
		})
	}
	return out
}
