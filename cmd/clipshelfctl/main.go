/*
 * Copyright (c) 2025 the clipshelf authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// clipshelfctl is a small operator tool for a running clipshelf server:
// health probe and whole-dataset export/import.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"clipshelf/internal/client"
	"clipshelf/internal/crash"
	applog "clipshelf/internal/log"
	"clipshelf/internal/version"
)

func usage() {
	fmt.Println(version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  clipshelfctl version|-v|--version      Show version")
	fmt.Println("  clipshelfctl health                    Probe the server and print the backend kind")
	fmt.Println("  clipshelfctl export [file]             Write the full dataset to file (or stdout)")
	fmt.Println("  clipshelfctl import <file>             Replace the server dataset with file contents")
	fmt.Println()
	fmt.Println("The server URL is taken from CLIPSHELF_URL (default http://localhost:8080).")
}

func serverURL() string {
	if v := os.Getenv("CLIPSHELF_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func main() {
	applog.Init(applog.FromEnv())
	defer crash.Recover()

	args := os.Args
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c := client.New(serverURL())

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println(version.String())
	case "health":
		h, err := c.GetHealth(ctx)
		if err != nil {
			fail(err)
		}
		fmt.Printf("status=%s storage=%s\n", h.Status, h.Storage)
	case "export":
		ds, err := c.Export(ctx)
		if err != nil {
			fail(err)
		}
		out, err := json.MarshalIndent(ds, "", "  ")
		if err != nil {
			fail(err)
		}
		out = append(out, '\n')
		if len(args) > 2 {
			if err := os.WriteFile(args[2], out, 0o644); err != nil {
				fail(err)
			}
			fmt.Printf("dataset written to %s\n", args[2])
			return
		}
		fmt.Print(string(out))
	case "import":
		if len(args) < 3 {
			fmt.Println("import requires <file>")
			usage()
			os.Exit(2)
		}
		doc, err := os.ReadFile(args[2])
		if err != nil {
			fail(err)
		}
		if err := c.Import(ctx, doc); err != nil {
			fail(err)
		}
		fmt.Println("dataset imported")
	default:
		usage()
		os.Exit(2)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "clipshelfctl: %v\n", err)
	os.Exit(1)
}
