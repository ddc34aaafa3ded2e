// Package filewatch lets the file settings source reload its files automatically whenever they
// change on disk.
//
// It is used together with the filesettings package:
//
//	config := analytics.Config{
//	    Settings: filesettings.DataSource().
//	        FilePaths(filePaths).
//	        Reloader(filewatch.WatchFiles),
//	}
//
// The two packages are separate so that applications that do not need automatic reloading do not
// take on the fsnotify dependency.
package filewatch
