// Package reportsqlite provides a SQLite report renderer for the audit log.
//
// The renderer is not part of the built-in format set; hosts register it on
// a report registry explicitly:
//
//	reports := blueprint.NewReportRegistry()
//	_ = reports.Register(reportsqlite.Format, reportsqlite.Renderer{})
//
// The table name is configurable via Renderer.TableName and defaults to
// "print_records", the same table the kiosk keeps its live audit log in.
package reportsqlite
