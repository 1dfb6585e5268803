// Package scraper fetches and parses the UFSC CAGR class listing ("cadastroTurmas").
//
// The site is a JSF form that keeps pagination state in the server-side session.
// Each (semester, campus) scrape therefore runs on its own cookie-holding Session,
// primed with an empty POST before any query is submitted. Pages are fetched in
// order and parsed into schedule.Class records; scraping stops early when the
// server answers with the same page twice, which is how the site signals the end
// of the data. The package also discovers the semesters offered on the landing page.
package scraper
