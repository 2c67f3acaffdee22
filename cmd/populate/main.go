// Command populate fills a MySQL database with fixture data for migration
// runs: users, their sites, and jobs at those sites.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var (
	host     = flag.String("host", "localhost", "MySQL host")
	port     = flag.Int("port", 3306, "MySQL port")
	database = flag.String("database", "", "MySQL database name")
	user     = flag.String("user", "root", "MySQL user")
	password = flag.String("password", "", "MySQL password")

	userCount = flag.Int("users", 10000, "Number of users to insert")
	minSites  = flag.Int("min-sites", 0, "Minimum sites per user")
	maxSites  = flag.Int("max-sites", 3, "Maximum sites per user")

	batchSize = 1000
)

var siteTypes = []string{"Construction", "Warehouse", "Office", "Factory", "Retail"}

func randomString(n int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz"
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(charset[rand.Intn(len(charset))])
	}
	return b.String()
}

func clearTables(db *sql.DB) error {
	fmt.Println("Clearing existing data...")
	stmts := []string{
		"SET FOREIGN_KEY_CHECKS=0",
		"TRUNCATE TABLE jobs",
		"TRUNCATE TABLE sites",
		"TRUNCATE TABLE users",
		"SET FOREIGN_KEY_CHECKS=1",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

func populateUsers(db *sql.DB, count int) error {
	fmt.Printf("Inserting %d users...", count)
	start := time.Now()
	for i := 0; i < count; i += batchSize {
		remaining := min(batchSize, count-i)
		var query strings.Builder
		query.WriteString("INSERT INTO users (username, email, password) VALUES ")
		for j := 0; j < remaining; j++ {
			username := "user_" + randomString(8)
			if j > 0 {
				query.WriteByte(',')
			}
			fmt.Fprintf(&query, "('%s','%s@example.com','hash_%s')",
				username, username, randomString(16))
		}
		if _, err := db.Exec(query.String()); err != nil {
			return err
		}
		if (i+batchSize)%10000 == 0 {
			fmt.Print(".")
		}
	}
	fmt.Printf(" Done in %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func rowCount(db *sql.DB, table string) (int64, error) {
	var count int64
	err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
	return count, err
}

func populateSites(db *sql.DB, minPerUser, maxPerUser int) error {
	users, err := rowCount(db, "users")
	if err != nil {
		return err
	}
	fmt.Printf("Inserting sites for %d users...", users)
	start := time.Now()

	var query strings.Builder
	batch := 0
	total := 0
	flush := func() error {
		if batch == 0 {
			return nil
		}
		_, err := db.Exec(query.String())
		query.Reset()
		batch = 0
		return err
	}
	for userID := int64(1); userID <= users; userID++ {
		n := minPerUser + rand.Intn(maxPerUser-minPerUser+1)
		for i := 0; i < n; i++ {
			if batch == 0 {
				query.WriteString("INSERT INTO sites (name, user_id) VALUES ")
			} else {
				query.WriteByte(',')
			}
			fmt.Fprintf(&query, "('%s Site %s',%d)",
				siteTypes[rand.Intn(len(siteTypes))], randomString(4), userID)
			batch++
			total++
			if batch >= batchSize {
				if err := flush(); err != nil {
					return err
				}
				if total%10000 == 0 {
					fmt.Print(".")
				}
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	fmt.Printf(" Done: %d sites in %v\n", total, time.Since(start).Round(time.Millisecond))
	return nil
}

func populateJobs(db *sql.DB) error {
	sites, err := rowCount(db, "sites")
	if err != nil {
		return err
	}
	fmt.Printf("Inserting jobs for %d sites...", sites)
	start := time.Now()

	total := 0
	for siteID := int64(1); siteID <= sites; siteID += int64(batchSize) {
		upper := min(siteID+int64(batchSize)-1, sites)
		var query strings.Builder
		query.WriteString("INSERT INTO jobs (start_date, site_id) VALUES ")
		for id := siteID; id <= upper; id++ {
			if id > siteID {
				query.WriteByte(',')
			}
			fmt.Fprintf(&query, "(DATE_ADD('2024-01-01', INTERVAL %d DAY),%d)",
				rand.Intn(400), id)
			total++
		}
		if _, err := db.Exec(query.String()); err != nil {
			return err
		}
		if total%10000 == 0 {
			fmt.Print(".")
		}
	}
	fmt.Printf(" Done: %d jobs in %v\n", total, time.Since(start).Round(time.Millisecond))
	return nil
}

func run() error {
	if *database == "" {
		return fmt.Errorf("-database is required")
	}
	if *minSites < 0 || *maxSites < *minSites {
		return fmt.Errorf("invalid site range [%d,%d]", *minSites, *maxSites)
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", *user, *password, *host, *port, *database)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("mysql connect: %w", err)
	}

	if err := clearTables(db); err != nil {
		return err
	}
	if err := populateUsers(db, *userCount); err != nil {
		return err
	}
	if err := populateSites(db, *minSites, *maxSites); err != nil {
		return err
	}
	return populateJobs(db)
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "populate: %v\n", err)
		os.Exit(1)
	}
}
