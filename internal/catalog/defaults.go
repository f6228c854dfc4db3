package catalog

// Category describes one applicant track: its stable key, the display
// name, the menu button label and the export sheet title.
type Category struct {
	Key    string
	Title  string
	Button string
	Sheet  string
}

// Categories lists the applicant tracks in menu order.
var Categories = []Category{
	{Key: "driver", Title: "Водій", Button: "🚗 Водій", Sheet: "Водії"},
	{Key: "cleaner", Title: "Клінер", Button: "🧹 Клінер", Sheet: "Клінери"},
	{Key: "hr", Title: "HR", Button: "📋 HR", Sheet: "HR"},
	{Key: "manager", Title: "Менеджер", Button: "👔 Менеджер", Sheet: "Менеджери"},
	{Key: "smm", Title: "SMM", Button: "📱 SMM", Sheet: "SMM"},
	{Key: "storekeeper", Title: "Комірник", Button: "📦 Комірник", Sheet: "Комірники"},
	{Key: "mall_worker", Title: "Працівник ТРЦ", Button: "🏢 Працівник ТРЦ", Sheet: "Працівники ТРЦ"},
}

// CategoryByKey looks up a category by its stable key.
func CategoryByKey(key string) (Category, bool) {
	for _, c := range Categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

var yesNo = []string{"✅ Так", "❌ Ні"}

var experienceScale = []string{"Немає", "До 1 року", "1–3 роки", "3+ роки"}

var defaultQuestions = map[string][]Question{
	"driver": {
		{ID: 1, Label: "Особисті дані", Prompt: "🚗 Ваше ім'я, вік, район проживання?", Kind: KindText, Required: true},
		{ID: 2, Label: "Посвідчення B", Prompt: "🚗 Маєте водійське посвідчення категорії B?", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 3, Label: "Стаж", Prompt: "🚗 Стаж водіння:", Kind: KindOptions, Options: []string{"1–2 роки", "3–5 років", "5+ років"}, Required: true},
		{ID: 4, Label: "Досвід", Prompt: "🚗 Досвід роботи водієм:", Kind: KindOptions, Options: []string{"Немає", "Таксі", "Доставка", "Власне авто", "Перевезення"}, Required: true},
		{ID: 5, Label: "Nissan", Prompt: "🚗 Чи готові працювати з корпоративним авто електро Nissan E-NV 200?", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 6, Label: "Графік", Prompt: "🚗 Зручний графік:", Kind: KindOptions, Options: []string{"Повний день", "5/2", "Вихідні"}, Required: true},
		{ID: 7, Label: "Стажування", Prompt: "🚗 Готовність пройти стажувальний день:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 8, Label: "Телефон", Prompt: "🚗 Контактний номер телефону:", Kind: KindText, Required: true},
		{ID: 9, Label: "Дата стажування", Prompt: "🚗 Оберіть дату стажування:", Kind: KindCalendar, Required: true},
	},
	"cleaner": {
		{ID: 1, Label: "Особисті дані", Prompt: "🧹 Ваше ім'я, вік, район проживання?", Kind: KindText, Required: true},
		{ID: 2, Label: "Досвід", Prompt: "🧹 Досвід роботи у клінінгу:", Kind: KindOptions, Options: experienceScale, Required: true},
		{ID: 3, Label: "Мити вікна", Prompt: "🧹 Чи вмієте мити вікна?", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 4, Label: "Графік", Prompt: "🧹 Графік роботи:", Kind: KindOptions, Options: []string{"Повний день", "5/2", "2/2", "Підробіток"}, Required: true},
		{ID: 5, Label: "Фізична", Prompt: "🧹 Готовність до фізичної роботи:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 6, Label: "Їздити", Prompt: "🧹 Чи готові їздити на об'єкти по місту?", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 7, Label: "Стажування", Prompt: "🧹 Готовність пройти стажувальний день:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 8, Label: "Телефон", Prompt: "🧹 Контактний номер телефону:", Kind: KindText, Required: true},
		{ID: 9, Label: "Дата стажування", Prompt: "🧹 Оберіть дату стажування:", Kind: KindCalendar, Required: true},
	},
	"hr": {
		{ID: 1, Label: "Особисті дані", Prompt: "👥 Ваше ім'я, вік, район проживання?", Kind: KindText, Required: true},
		{ID: 2, Label: "Досвід HR", Prompt: "👥 Досвід у HR/рекрутингу:", Kind: KindOptions, Options: experienceScale, Required: true},
		{ID: 3, Label: "Платформи", Prompt: "👥 Платформи для пошуку кандидатів якими володієте:", Kind: KindOptions, Options: []string{"Work.ua", "Robota.ua", "Jooble", "Соцмережі", "Всі"}, Required: true},
		{ID: 4, Label: "Масовий підбір", Prompt: "👥 Досвід підбору персоналу:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 5, Label: "Формат", Prompt: "👥 Формат роботи:", Kind: KindOptions, Options: []string{"5/2", "2/2"}, Required: true},
		{ID: 6, Label: "Випробувальний", Prompt: "👥 Готовність пройти випробувальний період:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 7, Label: "Телефон", Prompt: "👥 Контактний номер телефону:", Kind: KindText, Required: true},
		{ID: 8, Label: "Дата стажування", Prompt: "👥 Оберіть дату стажування:", Kind: KindCalendar, Required: true},
	},
	"manager": {
		{ID: 1, Label: "Особисті дані", Prompt: "👔 Ваше ім'я, вік, район проживання?", Kind: KindText, Required: true},
		{ID: 2, Label: "Керування", Prompt: "👔 Досвід керування командою:", Kind: KindOptions, Options: experienceScale, Required: true},
		{ID: 3, Label: "Досвід клінінгу", Prompt: "👔 Досвід у сфері клінінгу:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 4, Label: "Контроль якості", Prompt: "👔 Чи готові контролювати якість і спілкуватися з клієнтами?", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 5, Label: "Організація", Prompt: "👔 Уміння організовувати людей:", Kind: KindOptions, Options: []string{"Добре", "Середньо", "Потрібен досвід"}, Required: true},
		{ID: 6, Label: "Графік", Prompt: "👔 Готовність працювати за графіком:", Kind: KindOptions, Options: []string{"5/2", "2/2", "Обидва"}, Required: true},
		{ID: 7, Label: "Продажі", Prompt: "👔 Чи мали досвід з продажами:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 8, Label: "Стажування", Prompt: "👔 Готовність пройти стажувальний день:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 9, Label: "Телефон", Prompt: "👔 Контактний номер телефону:", Kind: KindText, Required: true},
		{ID: 10, Label: "Дата стажування", Prompt: "👔 Оберіть дату стажування:", Kind: KindCalendar, Required: true},
	},
	"smm": {
		{ID: 1, Label: "Особисті дані", Prompt: "📱 Ваше ім'я, вік, район проживання?", Kind: KindText, Required: true},
		{ID: 2, Label: "Досвід SMM", Prompt: "📱 Досвід ведення соцмереж для бізнесу:", Kind: KindOptions, Options: experienceScale, Required: true},
		{ID: 3, Label: "Платформи", Prompt: "📱 З якими платформами працювали?", Kind: KindOptions, Options: []string{"Instagram", "TikTok", "Facebook", "Інше"}, Required: true},
		{ID: 4, Label: "Контент", Prompt: "📱 Вміння створювати контент:", Kind: KindOptions, Options: []string{"Пости", "Відео", "Обидва"}, Required: true},
		{ID: 5, Label: "Інструменти", Prompt: "📱 Інструменти:", Kind: KindOptions, Options: []string{"Canva", "CapCut", "Photoshop", "Інше"}, Required: true},
		{ID: 6, Label: "Таргет", Prompt: "📱 Чи знайомі з таргетованою рекламою?", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 7, Label: "Зйомка", Prompt: "📱 Чи готові виїзжати на об'єкти для зйомки контенту:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 8, Label: "Тестове", Prompt: "📱 Готовність виконати тестове завдання:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 9, Label: "Портфоліо", Prompt: "📱 Надішліть посилання на приклади ваших робіт (тільки URL-адреси):", Kind: KindText, Required: false},
		{ID: 10, Label: "Телефон", Prompt: "📱 Контактний номер телефону:", Kind: KindText, Required: true},
		{ID: 11, Label: "Дата стажування", Prompt: "📱 Оберіть дату стажування:", Kind: KindCalendar, Required: true},
	},
	"storekeeper": {
		{ID: 1, Label: "Особисті дані", Prompt: "📦 Ваше ім'я, вік, район проживання?", Kind: KindText, Required: true},
		{ID: 2, Label: "Досвід складу", Prompt: "📦 Досвід роботи на складі:", Kind: KindOptions, Options: experienceScale, Required: true},
		{ID: 3, Label: "Інвентаризація", Prompt: "📦 Інвентаризація та облік:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 4, Label: "Облік матеріалів", Prompt: "📦 Чи готові вести облік витратних матеріалів/хімії?", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 5, Label: "Excel", Prompt: "📦 Рівень роботи з Excel/Google Sheets:", Kind: KindOptions, Options: []string{"Початковий", "Середній", "Впевнений"}, Required: true},
		{ID: 6, Label: "Фізична", Prompt: "📦 Фізична робота:", Kind: KindOptions, Options: []string{"Комфортно", "Складно"}, Required: true},
		{ID: 7, Label: "Графік 7-11", Prompt: "📦 Графік роботи 5/2, з 07:00 до 11:00:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 8, Label: "Локація", Prompt: "📦 Локація складу:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 9, Label: "Випробувальний", Prompt: "📦 Готовність пройти випробувальний період:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 10, Label: "Телефон", Prompt: "📦 Контактний номер телефону:", Kind: KindText, Required: true},
		{ID: 11, Label: "Дата стажування", Prompt: "📦 Оберіть дату стажування:", Kind: KindCalendar, Required: true},
	},
	"mall_worker": {
		{ID: 1, Label: "Особисті дані", Prompt: "🏢 Ваше ім'я, вік, район проживання?", Kind: KindText, Required: true},
		{ID: 2, Label: "Досвід клінінгу", Prompt: "🏢 Досвід роботи у сфері клінінгу:", Kind: KindOptions, Options: experienceScale, Required: true},
		{ID: 3, Label: "Види прибирання", Prompt: "🏢 Які види прибирання вам знайомі?", Kind: KindOptions, Options: []string{"Квартири", "Офіси", "ТРЦ / великі приміщення", "Після ремонту", "Інше"}, Required: true},
		{ID: 4, Label: "Робота в команді", Prompt: "🏢 Наскільки комфортна для вас робота в команді?", Kind: KindOptions, Options: []string{"Комфортно", "Більше подобається самостійно"}, Required: true},
		{ID: 5, Label: "Фізична активність", Prompt: "🏢 Ставлення до фізично активної роботи (11 годин у зміні):", Kind: KindOptions, Options: []string{"Комфортно", "Складно"}, Required: true},
		{ID: 6, Label: "Графік 3/2", Prompt: "🏢 Готовність працювати за графіком 3/2 по 11 годин:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 7, Label: "Локація", Prompt: "🏢 Чи зручна вам локація (Софіївська Борщагівка, Яблунева 4):", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 8, Label: "Стажування", Prompt: "🏢 Готовність пройти стажувальний день:", Kind: KindOptions, Options: yesNo, Required: true},
		{ID: 9, Label: "Телефон", Prompt: "🏢 Контактний номер телефону:", Kind: KindText, Required: true},
		{ID: 10, Label: "Дата стажування", Prompt: "🏢 Оберіть дату стажування:", Kind: KindCalendar, Required: true},
	},
}
