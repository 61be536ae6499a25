package grammar

var (
	cLike     = []string{"//", "/*"}
	hashOnly  = []string{"#"}
	dashDash  = []string{"--"}
	htmlLike  = []string{"<!--"}
	semicolon = []string{";"}
	percent   = []string{"%"}
	noLeaders = []string{}
)

func lang(id string, leaders ...string) Language {
	return Language{ID: id, Leaders: leaders}
}

func with(id string, leaders []string) Language {
	return Language{ID: id, Leaders: leaders}
}

// DefaultTables returns a fresh copy of the built-in language tables.
func DefaultTables() Tables {
	t := Tables{
		Extensions: map[string]Language{
			// C family and friends.
			".c":      with("c", cLike),
			".h":      with("c", cLike),
			".cpp":    with("cpp", cLike),
			".cc":     with("cpp", cLike),
			".cxx":    with("cpp", cLike),
			".hpp":    with("cpp", cLike),
			".hh":     with("cpp", cLike),
			".hxx":    with("cpp", cLike),
			".ino":    with("arduino", cLike),
			".cs":     with("csharp", cLike),
			".java":   with("java", cLike),
			".kt":     with("kotlin", cLike),
			".kts":    with("kotlin", cLike),
			".scala":  with("scala", cLike),
			".sc":     with("scala", cLike),
			".groovy": with("groovy", cLike),
			".gradle": with("groovy", cLike),
			".go":     with("go", cLike),
			".rs":     lang("rust", "//", "/*", "///", "//!"),
			".swift":  with("swift", cLike),
			".m":      with("objective-c", cLike),
			".mm":     with("objective-cpp", cLike),
			".dart":   with("dart", cLike),
			".zig":    lang("zig", "//"),
			".v":      with("v", cLike),
			".d":      with("d", cLike),
			".sol":    with("solidity", cLike),
			".proto":  with("protobuf", cLike),
			".thrift": with("thrift", cLike),
			".php":    lang("php", "//", "/*", "#"),
			".hx":     with("haxe", cLike),
			".ts":     with("typescript", cLike),
			".mts":    with("typescript", cLike),
			".cts":    with("typescript", cLike),
			".tsx":    with("tsx", cLike),
			".js":     with("javascript", cLike),
			".mjs":    with("javascript", cLike),
			".cjs":    with("javascript", cLike),
			".jsx":    with("jsx", cLike),
			".jsonc":  with("jsonc", cLike),
			".json5":  with("json5", cLike),
			".css":    lang("css", "/*"),
			".scss":   with("scss", cLike),
			".sass":   with("sass", cLike),
			".less":   with("less", cLike),
			".styl":   with("stylus", cLike),
			".glsl":   with("glsl", cLike),
			".hlsl":   with("hlsl", cLike),
			".wgsl":   lang("wgsl", "//"),
			".cu":     with("cuda", cLike),
			".fs":     lang("fsharp", "//", "(*"),
			".fsx":    lang("fsharp", "//", "(*"),
			".ml":     lang("ocaml", "(*"),
			".mli":    lang("ocaml", "(*"),
			".pas":    lang("pascal", "//", "(*"),
			".vue":    lang("vue", "<!--", "//", "/*"),
			".svelte": lang("svelte", "<!--", "//", "/*"),
			".astro":  lang("astro", "<!--", "//", "/*"),
			".prisma": lang("prisma", "//"),
			".tf":     lang("terraform", "#", "//", "/*"),
			".tfvars": lang("terraform", "#", "//", "/*"),
			".hcl":    lang("hcl", "#", "//", "/*"),

			// Hash comments.
			".py":            with("python", hashOnly),
			".pyi":           with("python", hashOnly),
			".pyx":           with("cython", hashOnly),
			".rb":            with("ruby", hashOnly),
			".rake":          with("ruby", hashOnly),
			".gemspec":       with("ruby", hashOnly),
			".sh":            with("shell", hashOnly),
			".bash":          with("bash", hashOnly),
			".zsh":           with("zsh", hashOnly),
			".fish":          with("fish", hashOnly),
			".ps1":           with("powershell", hashOnly),
			".psm1":          with("powershell", hashOnly),
			".pl":            with("perl", hashOnly),
			".pm":            with("perl", hashOnly),
			".raku":          with("raku", hashOnly),
			".r":             with("r", hashOnly),
			".jl":            with("julia", hashOnly),
			".ex":            with("elixir", hashOnly),
			".exs":           with("elixir", hashOnly),
			".cr":            with("crystal", hashOnly),
			".nim":           with("nim", hashOnly),
			".coffee":        with("coffeescript", hashOnly),
			".tcl":           with("tcl", hashOnly),
			".awk":           with("awk", hashOnly),
			".sed":           with("sed", hashOnly),
			".nix":           with("nix", hashOnly),
			".cmake":         with("cmake", hashOnly),
			".mk":            with("make", hashOnly),
			".graphql":       with("graphql", hashOnly),
			".gql":           with("graphql", hashOnly),
			".yaml":          with("yaml", hashOnly),
			".yml":           with("yaml", hashOnly),
			".toml":          with("toml", hashOnly),
			".cfg":           with("config", hashOnly),
			".conf":          with("config", hashOnly),
			".properties":    lang("properties", "#", "!"),
			".dockerfile":    with("dockerfile", hashOnly),
			".containerfile": with("dockerfile", hashOnly),
			".ini":           lang("ini", ";", "#"),
			".env":           with("dotenv", hashOnly),

			// Double dash.
			".sql":  with("sql", dashDash),
			".lua":  lang("lua", "--"),
			".hs":   lang("haskell", "--", "{-"),
			".elm":  lang("elm", "--", "{-"),
			".purs": with("purescript", dashDash),
			".ada":  with("ada", dashDash),
			".adb":  with("ada", dashDash),
			".ads":  with("ada", dashDash),
			".vhd":  with("vhdl", dashDash),
			".vhdl": with("vhdl", dashDash),

			// Markup.
			".md":       with("markdown", htmlLike),
			".mdx":      lang("mdx", "<!--", "{/*"),
			".markdown": with("markdown", htmlLike),
			".html":     with("html", htmlLike),
			".htm":      with("html", htmlLike),
			".xhtml":    with("html", htmlLike),
			".xml":      with("xml", htmlLike),
			".svg":      with("svg", htmlLike),
			".xsl":      with("xml", htmlLike),
			".plist":    with("xml", htmlLike),
			".erb":      lang("erb", "<!--", "<%#"),
			".hbs":      lang("handlebars", "<!--", "{{!--"),

			// Semicolon.
			".clj":  with("clojure", semicolon),
			".cljs": with("clojure", semicolon),
			".cljc": with("clojure", semicolon),
			".edn":  with("edn", semicolon),
			".lisp": with("lisp", semicolon),
			".el":   with("emacs-lisp", semicolon),
			".scm":  with("scheme", semicolon),
			".rkt":  with("racket", semicolon),
			".asm":  with("assembly", semicolon),
			".s":    lang("assembly", ";", "#"),
			".ahk":  with("autohotkey", semicolon),

			// Percent.
			".tex": with("latex", percent),
			".sty": with("latex", percent),
			".bib": with("bibtex", percent),
			".erl": with("erlang", percent),
			".hrl": with("erlang", percent),
			".pro": with("prolog", percent),

			// Everything else.
			".vb":   lang("visual-basic", "'"),
			".vbs":  lang("vbscript", "'"),
			".bas":  lang("basic", "'"),
			".bat":  lang("batch", "REM", "rem"),
			".cmd":  lang("batch", "REM", "rem"),
			".f90":  lang("fortran", "!"),
			".f95":  lang("fortran", "!"),
			".vim":  lang("vim", "\""),
			".adoc": lang("asciidoc", "//"),
			".rst":  lang("restructuredtext", ".."),

			// Known, but without comments.
			".json":  with("json", noLeaders),
			".csv":   with("csv", noLeaders),
			".tsv":   with("tsv", noLeaders),
			".txt":   with("text", noLeaders),
			".lock":  with("lockfile", noLeaders),
			".ipynb": with("jupyter", noLeaders),
		},
		Basenames: map[string]Language{
			"Dockerfile":     with("dockerfile", hashOnly),
			"Containerfile":  with("dockerfile", hashOnly),
			"Makefile":       with("make", hashOnly),
			"GNUmakefile":    with("make", hashOnly),
			"makefile":       with("make", hashOnly),
			"Justfile":       with("just", hashOnly),
			"justfile":       with("just", hashOnly),
			"Rakefile":       with("ruby", hashOnly),
			"Gemfile":        with("ruby", hashOnly),
			"Podfile":        with("ruby", hashOnly),
			"Vagrantfile":    with("ruby", hashOnly),
			"Brewfile":       with("ruby", hashOnly),
			"Procfile":       with("procfile", hashOnly),
			"Caddyfile":      with("caddyfile", hashOnly),
			"BUILD":          with("starlark", hashOnly),
			"BUILD.bazel":    with("starlark", hashOnly),
			"WORKSPACE":      with("starlark", hashOnly),
			"Tiltfile":       with("starlark", hashOnly),
			"CMakeLists.txt": with("cmake", hashOnly),
			"Jenkinsfile":    with("groovy", cLike),
			".bashrc":        with("bash", hashOnly),
			".zshrc":         with("zsh", hashOnly),
			".profile":       with("shell", hashOnly),
			".gitignore":     with("gitignore", hashOnly),
			".dockerignore":  with("gitignore", hashOnly),
			".gitattributes": with("gitattributes", hashOnly),
			".editorconfig":  lang("editorconfig", "#", ";"),
			".npmrc":         lang("ini", ";", "#"),
			".env":           with("dotenv", hashOnly),
		},
		Compound: map[string]string{
			".d.ts":  ".ts",
			".d.mts": ".ts",
			".d.cts": ".ts",
			".d.tsx": ".tsx",
		},
	}
	return t.Clone()
}
