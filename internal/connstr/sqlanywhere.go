package connstr

import (
	"strconv"

	"github.com/sigreer/odbcgod/internal/odbc"
)

// SQLAnywhereVersions are the SQL Anywhere majors with a registered translator
var SQLAnywhereVersions = []int{11, 12, 16, 17}

// SQLAnywhereDriverName returns the ODBC driver name of a SQL Anywhere major
func SQLAnywhereDriverName(major int) string {
	return "SQL Anywhere " + strconv.Itoa(major)
}

// SQLAnywhereProvider returns the OLE DB provider of a SQL Anywhere major
func SQLAnywhereProvider(major int) string {
	return "SAOLEDB." + strconv.Itoa(major)
}

// OLE DB connection string keys
const (
	KeyProvider            = "Provider"
	KeyDataSource          = "Data Source"
	KeyInitialCatalog      = "Initial Catalog"
	KeyUserID              = "User ID"
	KeyPassword            = "Password"
	KeyPersistSecurityInfo = "Persist Security Info"
	KeyLocation            = "Location"
)

// SQLAnywhere returns the translator for a SQL Anywhere major version.
//
// The location comes from Host when set, otherwise from the TCPIP parameters
// of CommLinks.
func SQLAnywhere(major int) Translator {
	provider := SQLAnywhereProvider(major)
	return TranslatorFunc(func(dsn *odbc.DSNRecord) (string, error) {
		b := NewBuilder()
		b.Set(KeyProvider, provider)
		setIf(b, KeyDataSource, dsn.Server)
		setIf(b, KeyInitialCatalog, dsn.Database)
		setIf(b, KeyUserID, dsn.UserID)
		if pwd := odbc.Str(dsn.Password); pwd != "" {
			b.Set(KeyPassword, pwd)
			b.Set(KeyPersistSecurityInfo, "True")
		}

		if host := odbc.Str(dsn.Host); host != "" {
			b.Set(KeyLocation, host)
		} else if dsn.CommLinks != nil {
			loc, ok, err := CommLinksLocation(*dsn.CommLinks)
			if err != nil {
				return "", err
			}
			if ok {
				b.Set(KeyLocation, loc)
			}
		}
		return b.String(), nil
	})
}

func setIf(b *Builder, key string, v *string) {
	if v != nil {
		b.Set(key, *v)
	}
}
