package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const testDirectoryCSV = `LEGAJO_ASESOR_NUM,MERCHANT_NAME,DOCUMENTO_FISCAL_NUM,RUBRO_MERCHANT_DESC,DOMICILIO_FORMATEADO_TXT,TELEFONO_CARACTERISTICA_TXT,LATITUD,LONGITUD
55032,Kiosco Luna,20-12345678-3,Kiosco,Av. Corrientes 1234,1155550000,-34.6037,-58.3816
55032,Almacén Sol,30-87654321-0,Almacén,Calle Falsa 123,1144440000,,
9001,Ferretería Norte,27-11111111-4,Ferretería,Cabildo 2000,1133330000,-34.5627,-58.4565
`

// testEnv points the global flags at a fresh database and directory file.
type testEnv struct {
	dbPath  string
	csvPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dbPath:  filepath.Join(dir, "gestiones.db"),
		csvPath: filepath.Join(dir, "proveedores.csv"),
	}
	if err := os.WriteFile(env.csvPath, []byte(testDirectoryCSV), 0o600); err != nil {
		t.Fatalf("writing directory: %v", err)
	}
	t.Setenv("CRM_SHEETS_ENABLED", "false")
	return env
}

// run executes the command tree against the env's files.
func (e *testEnv) run(args ...string) (stdout, stderr string, err error) {
	full := append([]string{"--db", e.dbPath, "--directory", e.csvPath}, args...)
	return executeCommand(full...)
}

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (stdout, stderr string, err error) {
	root := NewRootCmd()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	root.SetOut(outBuf)
	root.SetErr(errBuf)
	root.SetArgs(args)
	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestRootHelp(t *testing.T) {
	_, _, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	for name, def := range map[string]string{
		"format":    "text",
		"db":        "",
		"config":    "",
		"directory": "",
	} {
		f := root.PersistentFlags().Lookup(name)
		if f == nil {
			t.Fatalf("expected --%s flag to exist", name)
		}
		if f.DefValue != def {
			t.Errorf("--%s default = %q, want %q", name, f.DefValue, def)
		}
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	root := NewRootCmd()
	want := []string{"serve", "merchants", "history", "report", "route", "log", "version"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestVersion(t *testing.T) {
	out, _, err := executeCommand("version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != Version+"\n" {
		t.Errorf("version output = %q, want %q", out, Version+"\n")
	}
}
