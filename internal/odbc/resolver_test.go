package odbc

import (
	"errors"
	"sync"
	"testing"

	"github.com/sigreer/odbcgod/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDenied = errors.New("access denied")

func addDriver(m *store.Memory, scope store.Scope, name string, attrs ...[2]string) {
	m.Set(scope, store.DriversIndexPath, name, "Installed")
	m.CreatePath(scope, store.DriverPath(name))
	m.SetAll(scope, store.DriverPath(name), attrs...)
}

func addDSN(m *store.Memory, scope store.Scope, name, driver string, attrs ...[2]string) {
	m.Set(scope, store.DSNIndexPath, name, driver)
	m.CreatePath(scope, store.DSNPath(name))
	m.SetAll(scope, store.DSNPath(name), attrs...)
}

func dsnNames(dsns []*DSNRecord) []string {
	var out []string
	for _, d := range dsns {
		out = append(out, d.Name)
	}
	return out
}

func TestListDriverNamesMissingIndex(t *testing.T) {
	m := store.NewMemory()
	r := New(m)

	names, err := r.ListDriverNames(store.ScopeSystem)
	require.NoError(t, err)
	assert.Empty(t, names)

	drivers, err := r.ListDrivers(store.ScopeUser)
	require.NoError(t, err)
	assert.Empty(t, drivers)
	assert.Zero(t, m.OpenKeys())
}

func TestListDrivers(t *testing.T) {
	m := store.NewMemory()
	addDriver(m, store.ScopeSystem, "SQL Anywhere 12", [2]string{"Driver", "dbodbc12.dll"}, [2]string{"APILevel", "1"})
	// Registered in the index without a detail location
	m.Set(store.ScopeSystem, store.DriversIndexPath, "Ghost", "Installed")
	addDriver(m, store.ScopeSystem, "PostgreSQL Unicode", [2]string{"Driver", "psqlodbc35w.dll"})

	r := New(m)

	names, err := r.ListDriverNames(store.ScopeSystem)
	require.NoError(t, err)
	assert.Equal(t, []string{"SQL Anywhere 12", "Ghost", "PostgreSQL Unicode"}, names)

	drivers, err := r.ListDrivers(store.ScopeSystem)
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, "SQL Anywhere 12", drivers[0].Name)
	assert.Equal(t, "dbodbc12.dll", Str(drivers[0].DriverDLL))
	assert.Equal(t, "1", Str(drivers[0].APILevel))
	assert.Equal(t, store.ScopeSystem, drivers[0].Scope)
	assert.Equal(t, "PostgreSQL Unicode", drivers[1].Name)
	assert.Zero(t, m.OpenKeys())
}

func TestDriverAbsent(t *testing.T) {
	m := store.NewMemory()
	m.Set(store.ScopeSystem, store.DriversIndexPath, "Ghost", "Installed")
	r := New(m)

	d, err := r.Driver(store.ScopeSystem, "Ghost")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = r.Driver(store.ScopeSystem, "Nothing")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestDSNDriverNameFromIndex(t *testing.T) {
	m := store.NewMemory()
	addDSN(m, store.ScopeSystem, "Sales", "SQL Anywhere 12",
		[2]string{"Driver", `C:\Program Files\SQL Anywhere 12\Bin64\dbodbc12.dll`},
		[2]string{"ServerName", "db1"})
	r := New(m)

	d, err := r.DSN(store.ScopeSystem, "Sales")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "SQL Anywhere 12", d.DriverName)
	assert.Equal(t, `C:\Program Files\SQL Anywhere 12\Bin64\dbodbc12.dll`, Str(d.DriverPath))
	assert.Equal(t, "db1", Str(d.Server))
	assert.Equal(t, store.ScopeSystem, d.Scope)
}

func TestDSNIndexedWithoutDetail(t *testing.T) {
	m := store.NewMemory()
	m.Set(store.ScopeUser, store.DSNIndexPath, "Orphan", "SQL Server")
	r := New(m)

	d, err := r.DSN(store.ScopeUser, "Orphan")
	require.NoError(t, err)
	assert.Nil(t, d)

	dsns, err := r.ListDSNs(store.ScopeUser)
	require.NoError(t, err)
	assert.Empty(t, dsns)
}

func TestDSNDetailWithoutIndex(t *testing.T) {
	m := store.NewMemory()
	m.Set(store.ScopeSystem, store.DSNPath("Loose"), "Server", "s")
	r := New(m)

	d, err := r.DSN(store.ScopeSystem, "Loose")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "", d.DriverName)
	assert.Equal(t, "s", Str(d.Server))

	dsns, err := r.ListDSNs(store.ScopeSystem)
	require.NoError(t, err)
	assert.Empty(t, dsns)
}

func TestDSNDanglingDriverReference(t *testing.T) {
	m := store.NewMemory()
	addDSN(m, store.ScopeSystem, "Old", "Removed Driver 1.0")
	r := New(m)

	dsns, err := r.ListDSNs(store.ScopeSystem)
	require.NoError(t, err)
	require.Len(t, dsns, 1)
	assert.Equal(t, "Removed Driver 1.0", dsns[0].DriverName)
}

func TestListDSNsTagsScope(t *testing.T) {
	m := store.NewMemory()
	addDSN(m, store.ScopeSystem, "A", "d")
	addDSN(m, store.ScopeUser, "B", "d")
	r := New(m)

	sys, err := r.ListDSNs(store.ScopeSystem)
	require.NoError(t, err)
	require.Len(t, sys, 1)
	assert.Equal(t, store.ScopeSystem, sys[0].Scope)

	usr, err := r.ListDSNs(store.ScopeUser)
	require.NoError(t, err)
	require.Len(t, usr, 1)
	assert.Equal(t, store.ScopeUser, usr[0].Scope)
}

func TestDSNPreferUser(t *testing.T) {
	m := store.NewMemory()
	addDSN(m, store.ScopeSystem, "Both", "sys-driver", [2]string{"Server", "sys"})
	addDSN(m, store.ScopeUser, "Both", "user-driver", [2]string{"Server", "usr"})
	addDSN(m, store.ScopeSystem, "SysOnly", "d")
	r := New(m)

	d, err := r.DSNPreferUser("Both")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, store.ScopeUser, d.Scope)
	assert.Equal(t, "usr", Str(d.Server))
	assert.Equal(t, "user-driver", d.DriverName)

	d, err = r.DSNPreferUser("SysOnly")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, store.ScopeSystem, d.Scope)

	d, err = r.DSNPreferUser("Neither")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestListAllDSNsMerge(t *testing.T) {
	m := store.NewMemory()
	addDSN(m, store.ScopeSystem, "A", "d", [2]string{"Server", "a-sys"})
	addDSN(m, store.ScopeSystem, "B", "d", [2]string{"Server", "b-sys"})
	addDSN(m, store.ScopeSystem, "C", "d", [2]string{"Server", "c-sys"})
	addDSN(m, store.ScopeUser, "D", "d", [2]string{"Server", "d-usr"})
	addDSN(m, store.ScopeUser, "B", "d", [2]string{"Server", "b-usr"})
	r := New(m)

	all, err := r.ListAllDSNs()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, dsnNames(all))

	assert.Equal(t, store.ScopeSystem, all[0].Scope)
	assert.Equal(t, store.ScopeUser, all[1].Scope)
	assert.Equal(t, "b-usr", Str(all[1].Server))
	assert.Equal(t, store.ScopeSystem, all[2].Scope)
	assert.Equal(t, store.ScopeUser, all[3].Scope)

	userB, err := r.DSN(store.ScopeUser, "B")
	require.NoError(t, err)
	assert.Equal(t, userB, all[1])
	assert.Zero(t, m.OpenKeys())
}

func TestListAllDSNsOneRecordPerName(t *testing.T) {
	m := store.NewMemory()
	for _, n := range []string{"x", "y", "z"} {
		addDSN(m, store.ScopeSystem, n, "d")
		addDSN(m, store.ScopeUser, n, "d")
	}
	r := New(m)

	all, err := r.ListAllDSNs()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, dsnNames(all))
	for _, d := range all {
		assert.Equal(t, store.ScopeUser, d.Scope)
	}
}

func TestListAllDrivers(t *testing.T) {
	m := store.NewMemory()
	addDriver(m, store.ScopeSystem, "A", [2]string{"Driver", "a-sys.so"})
	addDriver(m, store.ScopeSystem, "B", [2]string{"Driver", "b-sys.so"})
	addDriver(m, store.ScopeUser, "A", [2]string{"Driver", "a-usr.so"})
	addDriver(m, store.ScopeUser, "C", [2]string{"Driver", "c-usr.so"})
	r := New(m)

	all, err := r.ListAllDrivers()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a-usr.so", Str(all[0].DriverDLL))
	assert.Equal(t, "b-sys.so", Str(all[1].DriverDLL))
	assert.Equal(t, "c-usr.so", Str(all[2].DriverDLL))
}

func TestStoreFaultSurfaces(t *testing.T) {
	m := store.NewMemory()
	addDSN(m, store.ScopeSystem, "A", "d")
	addDSN(m, store.ScopeSystem, "B", "d")
	m.Fail(store.ScopeSystem, store.DSNPath("B"), errDenied)
	r := New(m)

	dsns, err := r.ListDSNs(store.ScopeSystem)
	require.ErrorIs(t, err, errDenied)
	assert.Nil(t, dsns, "no partial results on fault")

	_, err = r.ListAllDSNs()
	require.ErrorIs(t, err, errDenied)

	_, err = r.DSN(store.ScopeSystem, "B")
	require.ErrorIs(t, err, errDenied)

	assert.Zero(t, m.OpenKeys(), "keys leaked on error path")
}

func TestIndexFaultSurfaces(t *testing.T) {
	m := store.NewMemory()
	addDriver(m, store.ScopeUser, "A")
	m.Fail(store.ScopeUser, store.DriversIndexPath, errDenied)
	r := New(m)

	_, err := r.ListDriverNames(store.ScopeUser)
	require.ErrorIs(t, err, errDenied)
	_, err = r.ListAllDrivers()
	require.ErrorIs(t, err, errDenied)
	assert.Zero(t, m.OpenKeys())
}

func TestScopeUnavailable(t *testing.T) {
	m := store.NewMemory()
	addDSN(m, store.ScopeSystem, "A", "d")
	m.RemoveScope(store.ScopeUser)
	r := New(m)

	_, err := r.ListDSNs(store.ScopeUser)
	require.ErrorIs(t, err, store.ErrScopeUnavailable)

	_, err = r.DSNPreferUser("A")
	require.ErrorIs(t, err, store.ErrScopeUnavailable)

	_, err = r.ListAllDSNs()
	require.ErrorIs(t, err, store.ErrScopeUnavailable)

	sys, err := r.ListDSNs(store.ScopeSystem)
	require.NoError(t, err)
	assert.Len(t, sys, 1)
}

func TestConcurrentReads(t *testing.T) {
	m := store.NewMemory()
	for _, n := range []string{"a", "b", "c", "d"} {
		addDSN(m, store.ScopeSystem, n, "drv")
	}
	addDSN(m, store.ScopeUser, "b", "drv2")
	r := New(m)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			all, err := r.ListAllDSNs()
			if err != nil {
				errs <- err
				return
			}
			if len(all) != 4 || all[1].DriverName != "drv2" {
				errs <- errors.New("unexpected merge result")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	assert.Zero(t, m.OpenKeys())
}
