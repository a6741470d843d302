// Command tsgar converts TSG/Hylogger core-scanning datasets to Zarr
// archives.
package main

func main() {
	Execute()
}
