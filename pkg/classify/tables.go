package classify

// MailHosters returns the shipped MX-target classification table.
// Sorted by suffix; first match wins (see Table).
func MailHosters() Table {
	return Table{
		{".amazonaws.com", "amazon-ses"},
		{".barracudanetworks.com", "barracuda"},
		{".bechtle.com", "bechtle"},
		{".cisco.com", "cisco"},
		{".emailsrvr.com", "rackspace"},
		{".eo.outlook.com", "microsoft"},
		{".fireeyecloud.com", "fireeye"},
		{".forcepoint.net", "forcepoint"},
		{".fortimail.com", "fortinet"},
		{".gandi.net", "gandi"},
		{".google.com", "google"},
		{".googlemail.com", "google"},
		{".gpphosted.com", "proofpoint"},
		{".hornetsecurity.com", "hornetsecurity"},
		{".hostedemail.com", "opensrs"},
		{".ionos.de", "ionos"},
		{".iphmx.com", "cisco"},
		{".kasserver.com", "all-inkl"},
		{".kundenserver.de", "ionos"},
		{".mail.protection.outlook.com", "microsoft"},
		{".mailbox.org", "mailbox.org"},
		{".messagelabs.com", "broadcom"},
		{".mimecast.co.za", "mimecast"},
		{".mimecast.com", "mimecast"},
		{".mx.microsoft", "microsoft"},
		{".mxhichina.com", "alibaba"},
		{".ox.registrar-servers.com", "namecheap"},
		{".pphosted.com", "proofpoint"},
		{".protonmail.ch", "proton"},
		{".qq.com", "tencent"},
		{".retarus.com", "retarus"},
		{".rzone.de", "strato"},
		{".secureserver.net", "godaddy"},
		{".sophos.com", "sophos"},
		{".strato.de", "strato"},
		{".trendmicro.com", "trendmicro"},
		{".trendmicro.eu", "trendmicro"},
		{".yandex.net", "yandex"},
		{".zoho.com", "zoho"},
		{".zoho.eu", "zoho"},
	}
}

// SecurityVendors returns the labels that denote a dedicated mail
// security provider sitting in front of the real hoster. Reporters
// highlight these.
func SecurityVendors() Set {
	return NewSet(
		"barracuda",
		"broadcom",
		"cisco",
		"fireeye",
		"forcepoint",
		"fortinet",
		"google",
		"hornetsecurity",
		"microsoft",
		"mimecast",
		"proofpoint",
		"retarus",
		"sophos",
		"trendmicro",
	)
}

// CertProviders returns the subject-CN classification table used by
// certgrab. Subject common names are domain-shaped, so the same suffix
// matching applies: a shared CDN or hosting certificate reveals who
// actually terminates TLS for the probed address.
func CertProviders() Table {
	return Table{
		{".akamai.net", "akamai"},
		{".azureedge.net", "microsoft"},
		{".azurewebsites.net", "microsoft"},
		{".cloudflare.com", "cloudflare"},
		{".cloudflaressl.com", "cloudflare"},
		{".cloudfront.net", "amazon"},
		{".edgekey.net", "akamai"},
		{".edgesuite.net", "akamai"},
		{".fastly.net", "fastly"},
		{".github.io", "github"},
		{".google.com", "google"},
		{".googleusercontent.com", "google"},
		{".herokuapp.com", "heroku"},
		{".netlify.app", "netlify"},
		{".wpengine.com", "wpengine"},
	}
}
