package queryengine

import "strings"

// reservedKeywords is the closed set named in spec.md §4.6: a statement
// starting with one of these is assumed to already be valid T-SQL and is
// left untouched.
var reservedKeywords = map[string]struct{}{
	"SELECT": {}, "INSERT": {}, "UPDATE": {}, "DELETE": {}, "CREATE": {},
	"ALTER": {}, "DROP": {}, "DECLARE": {}, "SET": {}, "IF": {}, "BEGIN": {},
	"END": {}, "WHILE": {}, "FOR": {}, "MERGE": {}, "WITH": {}, "UNION": {},
	"USE": {}, "PRINT": {}, "RETURN": {}, "CAST": {}, "CASE": {},
}

// containsClauseKeywords is the set of clause keywords whose mere
// presence anywhere in the statement disqualifies it from auto-EXEC
// wrapping, per spec.md §4.6.
var containsClauseKeywords = []string{"WITH", "ORDER BY", "GROUP BY", "WHERE", "FROM", "JOIN"}

// autoExecWrap implements spec.md §4.6's SQL-Server-only auto-EXEC wrap:
// a bare procedure call like "sp_who2" is rewritten to "EXEC sp_who2" so
// it runs the way a typical SQL client would submit it.
func autoExecWrap(stmt string) string {
	trimmed := strings.TrimSpace(stmt)
	upper := strings.ToUpper(trimmed)

	if strings.HasPrefix(upper, "EXEC ") || strings.HasPrefix(upper, "EXECUTE ") ||
		upper == "EXEC" || upper == "EXECUTE" {
		return stmt
	}

	first := strings.ToUpper(firstWord(trimmed))
	if _, reserved := reservedKeywords[first]; reserved {
		return stmt
	}

	for _, kw := range containsClauseKeywords {
		if strings.Contains(upper, kw) {
			return stmt
		}
	}

	return "EXEC " + trimmed
}
