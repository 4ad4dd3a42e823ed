// Package i18n localizes the progress and result text the reconciliation
// tasks print. The language tag never affects behavior; an unknown tag
// falls back to English.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
)

var supported = []language.Tag{
	language.English, // fallback
	language.Russian,
	language.Kirghiz,
}

var matcher = language.NewMatcher(supported)

// Printer renders messages for one matched language.
type Printer struct {
	tag language.Tag
}

// New builds a Printer for a BCP 47 tag such as "en", "ru" or "ky".
// Anything unparseable or unsupported matches English.
func New(lang string) *Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		return &Printer{tag: language.English}
	}
	_, index, _ := matcher.Match(tag)
	return &Printer{tag: supported[index]}
}

// Lang returns the matched language tag.
func (p *Printer) Lang() language.Tag {
	return p.tag
}

// T translates a message key and substitutes arguments. The key doubles as
// the English format string, so a missing translation degrades gracefully.
func (p *Printer) T(key string, args ...any) string {
	format := key
	if byLang, ok := messages[key]; ok {
		if translated, ok := byLang[p.tag]; ok {
			format = translated
		}
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// messages maps the English format string to its translations.
var messages = map[string]map[language.Tag]string{
	"Starting duplicate check...": {
		language.Russian: "Начата проверка на дубликаты...",
		language.Kirghiz: "Дубликаттарды текшерүү башталды...",
	},
	"%d total beneficiaries loaded.": {
		language.Russian: "Всего загружено %d бенефициаров.",
		language.Kirghiz: "Жалпы %d жаран жүктөлдү.",
	},
	"%d records eligible for duplicate checking.": {
		language.Russian: "%d записей подлежат проверке на дубликаты.",
		language.Kirghiz: "%d жаран дубликат текшерүүсүнө ылайыктуу.",
	},
	"Duplicate check complete: %d updated, %d skipped, %d failed.": {
		language.Russian: "Проверка завершена: обновлено %d, пропущено %d, ошибок %d.",
		language.Kirghiz: "Текшерүү аяктады: %d жаңыртылды, %d өткөрүлдү, %d ката.",
	},
	"Detecting duplicates by child name + date of birth...": {
		language.Russian: "Поиск дубликатов по имени ребенка и дате рождения...",
		language.Kirghiz: "Бала аты жана туулган датасы боюнча көчүрмөлөрдү издөө...",
	},
	"Found %d households with children.": {
		language.Russian: "Найдено %d домохозяйств с детьми.",
		language.Kirghiz: "%d балалуу үй-бүлө табылды.",
	},
	"Found %d potential duplicates.": {
		language.Russian: "Найдено %d возможных дубликатов.",
		language.Kirghiz: "%d мүмкүн болгон көчүрмө табылды.",
	},
	"Starting payment deduplication...": {
		language.Russian: "Начато удаление дублирующихся платежей...",
		language.Kirghiz: "Төлөмдөрдү кайталоодон тазалоо башталды...",
	},
	"Done. Deleted %d duplicate payments, %d failed, %d skipped.": {
		language.Russian: "Готово. Удалено %d дубликатов, ошибок %d, пропущено %d.",
		language.Kirghiz: "Аякталды. %d кайталоо өчүрүлдү, %d ката, %d өткөрүлдү.",
	},
	"Searching for projects in selection stage...": {
		language.Russian: "Поиск проектов на стадии отбора...",
		language.Kirghiz: "Тандоо баскычындагы долбоорлорду издөө...",
	},
	"Found %d open project(s).": {
		language.Russian: "Найдено проектов: %d.",
		language.Kirghiz: "Табылган долбоорлор: %d.",
	},
	"Filtered to %d candidate beneficiaries.": {
		language.Russian: "Отфильтровано до бенефициаров на целевых стадиях: %d.",
		language.Kirghiz: "Максаттуу стадиядагы бенефициарлар: %d.",
	},
	"Eligibility check complete: %d updated, %d reverted to verified, %d failed.": {
		language.Russian: "Проверка завершена: обновлено %d, возвращено в VERIFIED %d, ошибок %d.",
		language.Kirghiz: "Текшерүү аяктады: %d жаңыртылды, %d VERIFIED стадиясына кайтарылды, %d ката.",
	},
	"Fetching all completed beneficiaries...": {
		language.Russian: "Получение всех завершённых бенефициаров...",
		language.Kirghiz: "Бардык аяктаган жарандар жүктөлүүдө...",
	},
	"Reset complete: %d updated, %d skipped, %d failed.": {
		language.Russian: "Сброс завершён: обновлено %d, пропущено %d, ошибок %d.",
		language.Kirghiz: "Кайтаруу аяктады: %d жаңыртылды, %d өткөрүлдү, %d ката.",
	},
	"Fetching all children...": {
		language.Russian: "Получение всех детей...",
		language.Kirghiz: "Бардык балдарды жүктөө...",
	},
	"Age update complete: %d updated, %d skipped, %d failed.": {
		language.Russian: "Возраст обновлён: %d обновлено, %d пропущено, %d ошибок.",
		language.Kirghiz: "Жаш жаңыртылды: %d жаңыртылды, %d өткөрүлдү, %d ката.",
	},
	"Merge references:": {
		language.Russian: "Ссылки для объединения:",
		language.Kirghiz: "Бириктирүү шилтемелери:",
	},
	"Dry run: no records were written.": {
		language.Russian: "Пробный запуск: записи не изменялись.",
		language.Kirghiz: "Сыноо режими: жазуулар өзгөртүлгөн жок.",
	},
}
