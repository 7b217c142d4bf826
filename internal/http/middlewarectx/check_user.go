package middlewarectx

import "net/http"

// CanAccessUser возвращает true, если запрос имеет право работать
// с ресурсами пользователя userUID: владелец или администратор.
func CanAccessUser(r *http.Request, userUID string) bool {
	if IsAdmin(r) {
		return true
	}
	uid, ok := r.Context().Value(UserUID).(string)
	return ok && uid != "" && uid == userUID
}
