package db

// timeLayout is how timestamps are stored. Text in this layout sorts
// chronologically and works with SQLite's date functions.
const timeLayout = "2006-01-02 15:04:05"

// dayLayout is the key of spend_history rows.
const dayLayout = "2006-01-02"
