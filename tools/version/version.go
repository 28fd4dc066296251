/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

// Command version generates the version constants of the version package.
package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/alecthomas/kong"
	"github.com/andreas-jonsson/vxtmouse/version"
)

type cli struct {
	File     string `default:"-" help:"Save the generated output to file."`
	Package  string `default:"version" help:"Package name of the generated output."`
	Variable string `default:"VXT_MOUSE_VERSION" help:"Environment variable containing the version number."`
}

func main() {
	var args cli
	kong.Parse(&args, kong.Description("Generates the version constants."))

	res, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		log.Print("could not parse Git hash: ", err)
	}

	const defaultVersion = "0.1.0"
	str := os.Getenv(args.Variable)
	if str == "" {
		str = defaultVersion
		log.Printf("%s is not set. Defaulting to %s", args.Variable, str)
	}

	ver, err := version.Parse(str)
	if err != nil {
		log.Print(err)
		ver, _ = version.Parse(defaultVersion)
	}

	const (
		startYear    = 2019
		copyrightFmt = "Copyright (c) %v Andreas T Jonsson"
	)

	years := strconv.Itoa(startYear)
	if year := time.Now().Year(); year != startYear {
		years = fmt.Sprintf("%d-%d", startYear, year)
	}

	values := map[string]interface{}{
		"hash":    strings.TrimSpace(string(res)),
		"version": ver,
		"copy":    fmt.Sprintf(copyrightFmt, years),
		"pkg":     args.Package,
	}

	tmpl := template.Must(template.New("version").Parse(content))

	fp := os.Stdout
	if args.File != "-" {
		os.MkdirAll(filepath.Dir(args.File), 0777)
		if fp, err = os.Create(args.File); err != nil {
			log.Panicln(err)
		}
		defer fp.Close()
	}

	if err := tmpl.Execute(fp, values); err != nil {
		log.Panicln(err)
	}
}

var content = `/*
{{.copy}}

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

package {{.pkg}}

var (
	Current   = Version{ {{- .version.Major}}, {{.version.Minor}}, {{.version.Patch}}, "{{.version.Build}}"}
	Copyright = "{{.copy}}"
	Hash      = "{{.hash}}"
)
`
