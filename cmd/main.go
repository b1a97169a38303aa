// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package main

import (
	"fmt"
	"os"

	"github.com/ostafen/diskprobe/cmd/cmd"
	"github.com/ostafen/diskprobe/internal/env"
)

func main() {
	if err := cmd.Execute(PrintLogo); err != nil {
		os.Exit(1)
	}
}

// PrintLogo writes the banner to stderr, keeping stdout for command output.
func PrintLogo() {
	w := os.Stderr
	fmt.Fprintln(w, "     _ _     _                       _          ")
	fmt.Fprintln(w, "  __| (_)___| | ___ __  _ __ ___ | |__   ___ ")
	fmt.Fprintln(w, " / _` | / __| |/ / '_ \\| '__/ _ \\| '_ \\ / _ \\")
	fmt.Fprintln(w, "| (_| | \\__ \\   <| |_) | | | (_) | |_) |  __/")
	fmt.Fprintln(w, " \\__,_|_|___/_|\\_\\ .__/|_|  \\___/|_.__/ \\___|")
	fmt.Fprintln(w, "                 |_|                         ")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Raw disk and partition table inspector")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Version:    %s\n", env.Version)
	fmt.Fprintf(w, "Commit:     %s\n", env.CommitHash)
	fmt.Fprintf(w, "Build Time: %s\n", env.BuildTime)
	fmt.Fprintln(w)
}
